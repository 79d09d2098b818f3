package graph

import (
	"errors"
	"testing"
)

func TestConditionGroupAndJoinRequiresAllConditions(t *testing.T) {
	wctx := NewWorkflowContext("wf-1", "run-1", Null())
	wctx.OutputData = Object(map[string]Value{"score": Number(0.9), "tier": String("gold")})

	group := ConditionGroup{
		Join: JoinAnd,
		Conditions: []Condition{
			{Field: "$output.score", Operator: OpGreaterEqual, Value: Number(0.5)},
			{Field: "$output.tier", Operator: OpEquals, Value: String("gold")},
		},
	}
	if !group.Evaluate(wctx) {
		t.Fatal("expected AND group to evaluate true when both conditions match")
	}

	group.Conditions[1].Value = String("silver")
	if group.Evaluate(wctx) {
		t.Fatal("expected AND group to evaluate false when one condition fails")
	}
}

func TestConditionGroupOrJoinRequiresOneCondition(t *testing.T) {
	wctx := NewWorkflowContext("wf-1", "run-1", Null())
	wctx.OutputData = Object(map[string]Value{"score": Number(0.1)})

	group := ConditionGroup{
		Join: JoinOr,
		Conditions: []Condition{
			{Field: "$output.score", Operator: OpGreaterEqual, Value: Number(0.9)},
			{Field: "$output.score", Operator: OpLessThan, Value: Number(0.5)},
		},
	}
	if !group.Evaluate(wctx) {
		t.Fatal("expected OR group to evaluate true when at least one condition matches")
	}
}

func TestConditionNegateInvertsResult(t *testing.T) {
	wctx := NewWorkflowContext("wf-1", "run-1", Null())
	wctx.OutputData = Object(map[string]Value{"flag": Bool(true)})

	group := ConditionGroup{Conditions: []Condition{
		{Field: "$output.flag", Operator: OpIsTrue, Negate: true},
	}}
	if group.Evaluate(wctx) {
		t.Fatal("expected negated is_true condition to evaluate false for a truthy flag")
	}
}

func TestConditionGroupEmptyEvaluatesTrue(t *testing.T) {
	wctx := NewWorkflowContext("wf-1", "run-1", Null())
	var group *ConditionGroup
	if !group.Evaluate(wctx) {
		t.Fatal("expected a nil ConditionGroup to evaluate true")
	}
	empty := &ConditionGroup{}
	if !empty.Evaluate(wctx) {
		t.Fatal("expected an empty ConditionGroup to evaluate true")
	}
}

func TestEdgeCanTraverseDefaultRequiresNoError(t *testing.T) {
	e := &EdgeSpec{EdgeType: EdgeDefault}
	wctx := NewWorkflowContext("wf-1", "run-1", Null())
	if !e.CanTraverse(wctx, nil) {
		t.Fatal("expected default edge to traverse with no error")
	}
	if e.CanTraverse(wctx, errors.New("boom")) {
		t.Fatal("expected default edge to not traverse when the source node failed")
	}
}

func TestEdgeCanTraverseErrorEdgeMatchesKind(t *testing.T) {
	e := &EdgeSpec{EdgeType: EdgeError, ErrorTypes: []string{string(KindToolTimeout)}}
	wctx := NewWorkflowContext("wf-1", "run-1", Null())

	matching := NewError(KindToolTimeout, "timed out")
	if !e.CanTraverse(wctx, matching) {
		t.Fatal("expected error edge to traverse when the error kind matches")
	}

	other := NewError(KindToolExecutionError, "failed")
	if e.CanTraverse(wctx, other) {
		t.Fatal("expected error edge to not traverse for a non-matching kind")
	}
}

func TestEdgeCanTraverseErrorEdgeCatchAllWhenEmpty(t *testing.T) {
	e := &EdgeSpec{EdgeType: EdgeError}
	wctx := NewWorkflowContext("wf-1", "run-1", Null())
	if !e.CanTraverse(wctx, errors.New("anything")) {
		t.Fatal("expected an empty ErrorTypes list to catch all errors")
	}
	if e.CanTraverse(wctx, nil) {
		t.Fatal("expected an error edge to not traverse when there is no error")
	}
}

func TestEdgeCanTraverseFallbackAlwaysTraversable(t *testing.T) {
	e := &EdgeSpec{EdgeType: EdgeFallback}
	wctx := NewWorkflowContext("wf-1", "run-1", Null())
	if !e.CanTraverse(wctx, nil) {
		t.Fatal("expected fallback edge to traverse after a successful node")
	}
	if !e.CanTraverse(wctx, errors.New("boom")) {
		t.Fatal("expected fallback edge to traverse on error")
	}
}

func TestEdgeCanTraverseConditionalWithNoConditionsIsFalse(t *testing.T) {
	wctx := NewWorkflowContext("wf-1", "run-1", Null())

	nilCond := &EdgeSpec{EdgeType: EdgeConditional}
	if nilCond.CanTraverse(wctx, nil) {
		t.Fatal("expected a conditional edge with a nil Condition to not traverse")
	}

	emptyCond := &EdgeSpec{EdgeType: EdgeConditional, Condition: &ConditionGroup{}}
	if emptyCond.CanTraverse(wctx, nil) {
		t.Fatal("expected a conditional edge with an empty Condition to not traverse")
	}
}

func TestResolvePathAcrossNamespaces(t *testing.T) {
	wctx := NewWorkflowContext("wf-1", "run-1", Object(map[string]Value{"question": String("hi")}))
	wctx.OutputData = Object(map[string]Value{"answer": String("42")})
	wctx.Set("locale", String("en-US"))
	wctx.CompleteNode("lookup", Object(map[string]Value{"id": Number(7)}))

	if v, ok := ResolvePath(wctx, "$input.question"); !ok || v.AsString() != "hi" {
		t.Fatalf("expected $input.question to resolve to 'hi', got %v ok=%v", v.Native(), ok)
	}
	if v, ok := ResolvePath(wctx, "$output.answer"); !ok || v.AsString() != "42" {
		t.Fatalf("expected $output.answer to resolve to '42', got %v ok=%v", v.Native(), ok)
	}
	if v, ok := ResolvePath(wctx, "$ctx.locale"); !ok || v.AsString() != "en-US" {
		t.Fatalf("expected $ctx.locale to resolve to 'en-US', got %v ok=%v", v.Native(), ok)
	}
	if v, ok := ResolvePath(wctx, "$node.lookup.id"); !ok || v.AsNumber() != 7 {
		t.Fatalf("expected $node.lookup.id to resolve to 7, got %v ok=%v", v.Native(), ok)
	}
	if v, ok := ResolvePath(wctx, "locale"); !ok || v.AsString() != "en-US" {
		t.Fatalf("expected a bare name to resolve as a $ctx lookup, got %v ok=%v", v.Native(), ok)
	}
	if _, ok := ResolvePath(wctx, "$node.missing.id"); ok {
		t.Fatal("expected resolution against a missing node to fail")
	}
}

package tool

import (
	"testing"

	"github.com/agentgraph/workflow/graph"
)

func TestApplyAssignmentsSetAndIncrement(t *testing.T) {
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	result := map[string]interface{}{"data": map[string]interface{}{"total": 3.0}}

	assignments := []VariableAssignment{
		{Variable: "order_total", Operator: AssignSet, SourcePath: "data.total", Mode: AssignSync},
		{Variable: "call_count", Operator: AssignIncrement, Mode: AssignSync},
	}

	if err := ApplyAssignments(wctx, result, assignments); err != nil {
		t.Fatalf("ApplyAssignments: %v", err)
	}

	total, _ := wctx.Get("order_total")
	if total.AsNumber() != 3 {
		t.Fatalf("expected order_total 3, got %v", total.Native())
	}

	count, _ := wctx.Get("call_count")
	if count.AsNumber() != 1 {
		t.Fatalf("expected call_count incremented to 1, got %v", count.Native())
	}
}

func TestApplyAssignmentsSetIfTruthySkipsFalsy(t *testing.T) {
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	result := map[string]interface{}{"flag": false}

	assignments := []VariableAssignment{
		{Variable: "enabled", Operator: AssignSetIfTruthy, SourcePath: "flag", Mode: AssignSync},
	}
	if err := ApplyAssignments(wctx, result, assignments); err != nil {
		t.Fatalf("ApplyAssignments: %v", err)
	}
	if _, ok := wctx.Get("enabled"); ok {
		t.Fatal("expected 'enabled' to remain unset for a falsy source")
	}
}

func TestApplyAssignmentsRaisePropagatesError(t *testing.T) {
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	assignments := []VariableAssignment{
		{Variable: "x", Operator: "bogus_operator", Mode: AssignSync, OnError: AssignErrRaise},
	}
	if err := ApplyAssignments(wctx, nil, assignments); err == nil {
		t.Fatal("expected an error for an unknown operator under AssignErrRaise")
	}
}

func TestApplyAssignmentsSkipsAsyncUntilAsyncPass(t *testing.T) {
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	assignments := []VariableAssignment{
		{Variable: "async_var", Operator: AssignSet, Value: "should-not-run-sync", Mode: AssignAsync},
	}
	if err := ApplyAssignments(wctx, nil, assignments); err != nil {
		t.Fatalf("ApplyAssignments: %v", err)
	}
	if _, ok := wctx.Get("async_var"); ok {
		t.Fatal("async assignment should not run during the sync pass")
	}

	ApplyAsyncAssignments(wctx, nil, assignments)
	v, ok := wctx.Get("async_var")
	if !ok || v.AsString() != "should-not-run-sync" {
		t.Fatalf("expected async assignment to apply once run via ApplyAsyncAssignments, got %v", v.Native())
	}
}

package node

import (
	"context"
	"testing"

	"github.com/agentgraph/workflow/graph"
)

func TestDecisionFirstMatchingCaseWins(t *testing.T) {
	d := &Decision{
		NodeID: "route",
		Cases: []DecisionCase{
			{
				Result: "high",
				Condition: graph.ConditionGroup{Conditions: []graph.Condition{
					{Field: "$output.score", Operator: graph.OpGreaterEqual, Value: graph.Number(0.8)},
				}},
			},
			{
				Result: "medium",
				Condition: graph.ConditionGroup{Conditions: []graph.Condition{
					{Field: "$output.score", Operator: graph.OpGreaterEqual, Value: graph.Number(0.5)},
				}},
			},
		},
		DefaultResult: "low",
	}

	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.Object(map[string]graph.Value{"score": graph.Number(0.9)})

	res := d.Run(context.Background(), wctx)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	decision, _ := res.Output.Get("decision")
	if decision.AsString() != "high" {
		t.Fatalf("expected first matching case 'high', got %q", decision.AsString())
	}
}

func TestDecisionFallsBackToDefaultResult(t *testing.T) {
	d := &Decision{
		NodeID: "route",
		Cases: []DecisionCase{
			{
				Result: "high",
				Condition: graph.ConditionGroup{Conditions: []graph.Condition{
					{Field: "$output.score", Operator: graph.OpGreaterEqual, Value: graph.Number(0.8)},
				}},
			},
		},
		DefaultResult: "low",
	}

	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.Object(map[string]graph.Value{"score": graph.Number(0.1)})

	res := d.Run(context.Background(), wctx)
	decision, _ := res.Output.Get("decision")
	if decision.AsString() != "low" {
		t.Fatalf("expected DefaultResult 'low', got %q", decision.AsString())
	}
	input, ok := res.Output.Get("input")
	if !ok || input.Native() == nil {
		t.Fatalf("expected 'input' to echo wctx.OutputData, got %v", input.Native())
	}
}

func TestDecisionSecondCaseWinsWhenFirstDoesNotMatch(t *testing.T) {
	d := &Decision{
		NodeID: "route",
		Cases: []DecisionCase{
			{
				Result: "vip",
				Condition: graph.ConditionGroup{Conditions: []graph.Condition{
					{Field: "$output.tier", Operator: graph.OpEquals, Value: graph.String("gold")},
				}},
			},
			{
				Result: "standard",
				Condition: graph.ConditionGroup{Conditions: []graph.Condition{
					{Field: "$output.tier", Operator: graph.OpEquals, Value: graph.String("silver")},
				}},
			},
		},
		DefaultResult: "unknown",
	}

	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.Object(map[string]graph.Value{"tier": graph.String("silver")})

	res := d.Run(context.Background(), wctx)
	decision, _ := res.Output.Get("decision")
	if decision.AsString() != "standard" {
		t.Fatalf("expected second case 'standard' to win, got %q", decision.AsString())
	}
}

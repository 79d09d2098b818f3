package node

import (
	"context"
	"errors"
	"testing"

	"github.com/agentgraph/workflow/graph"
)

// fnNode is a minimal graph.Node backed by a function, used to exercise
// container nodes (Parallel, Loop) without depending on a concrete leaf
// node implementation.
type fnNode struct {
	id  string
	run func(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult
}

func (f *fnNode) ID() string { return f.id }
func (f *fnNode) Run(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
	return f.run(ctx, wctx)
}

func TestParallelCollectDict(t *testing.T) {
	p := &Parallel{
		NodeID: "fanout",
		Branches: []Branch{
			{Name: "a", Node: &fnNode{id: "a", run: func(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
				return graph.NodeResult{Output: graph.String("out-a")}
			}}},
			{Name: "b", Node: &fnNode{id: "b", run: func(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
				return graph.NodeResult{Output: graph.String("out-b")}
			}}},
		},
		Collect: CollectDict,
	}

	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	res := p.Run(context.Background(), wctx)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	a, _ := res.Output.Get("a")
	b, _ := res.Output.Get("b")
	if a.AsString() != "out-a" || b.AsString() != "out-b" {
		t.Fatalf("expected dict of branch outputs, got %v", res.Output.Native())
	}
}

func TestParallelCollectList(t *testing.T) {
	p := &Parallel{
		NodeID: "fanout",
		Branches: []Branch{
			{Name: "a", Node: &fnNode{id: "a", run: func(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
				return graph.NodeResult{Output: graph.Number(1)}
			}}},
			{Name: "b", Node: &fnNode{id: "b", run: func(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
				return graph.NodeResult{Output: graph.Number(2)}
			}}},
		},
		Collect: CollectList,
	}

	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	res := p.Run(context.Background(), wctx)
	list := res.Output.AsList()
	if len(list) != 2 {
		t.Fatalf("expected 2 items, got %d", len(list))
	}
}

func TestParallelFailFastAggregatesFailures(t *testing.T) {
	p := &Parallel{
		NodeID: "fanout",
		Branches: []Branch{
			{Name: "ok", Node: &fnNode{id: "ok", run: func(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
				return graph.NodeResult{Output: graph.String("fine")}
			}}},
			{Name: "bad", Node: &fnNode{id: "bad", run: func(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
				return graph.NodeResult{Err: errors.New("branch failed")}
			}}},
		},
		FailFast: true,
	}

	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	res := p.Run(context.Background(), wctx)
	if res.Err == nil {
		t.Fatal("expected an aggregated error from the failing branch")
	}
	perr, ok := res.Err.(*ParallelExecutionError)
	if !ok {
		t.Fatalf("expected *ParallelExecutionError, got %T", res.Err)
	}
	if _, ok := perr.Failures["bad"]; !ok {
		t.Fatalf("expected failure recorded for branch 'bad', got %v", perr.Failures)
	}
}

func TestParallelEmptyBranchesReturnsEmptyOutput(t *testing.T) {
	p := &Parallel{NodeID: "fanout"}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	res := p.Run(context.Background(), wctx)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
}

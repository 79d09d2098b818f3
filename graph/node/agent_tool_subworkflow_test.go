package node

import (
	"context"
	"errors"
	"testing"

	"github.com/agentgraph/workflow/graph"
	"github.com/agentgraph/workflow/graph/tool"
)

type fnAgent struct {
	run func(ctx context.Context, input graph.Value, metadata map[string]interface{}) (graph.Value, error)
}

func (f *fnAgent) Run(ctx context.Context, input graph.Value, metadata map[string]interface{}) (graph.Value, error) {
	return f.run(ctx, input, metadata)
}

func TestAgentNodeDelegatesAndProjectsOutputKey(t *testing.T) {
	a := &AgentNode{
		NodeID:    "delegate",
		OutputKey: "summary",
		Delegate: &fnAgent{run: func(ctx context.Context, input graph.Value, metadata map[string]interface{}) (graph.Value, error) {
			if metadata["nodeId"] != "delegate" {
				t.Fatalf("expected nodeId metadata 'delegate', got %v", metadata["nodeId"])
			}
			return graph.Object(map[string]graph.Value{
				"summary": graph.String("looks good"),
				"raw":     graph.String("..."),
			}), nil
		}},
	}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.Object(map[string]graph.Value{"text": graph.String("hi")})

	res := a.Run(context.Background(), wctx)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	if res.Output.AsString() != "looks good" {
		t.Fatalf("expected projected OutputKey, got %v", res.Output.Native())
	}
}

func TestAgentNodeWithoutDelegateErrors(t *testing.T) {
	a := &AgentNode{NodeID: "delegate"}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	res := a.Run(context.Background(), wctx)
	if res.Err == nil {
		t.Fatal("expected an error for a nil delegate")
	}
}

type fnToolExecutor struct {
	result map[string]interface{}
	err    error
}

func (f *fnToolExecutor) Execute(ctx context.Context, wctx *graph.WorkflowContext, caller tool.CallerContext, input map[string]interface{}, speechOut func(string)) (map[string]interface{}, error) {
	return f.result, f.err
}

func TestToolNodeExecutesAndWrapsResult(t *testing.T) {
	tn := &ToolNode{
		NodeID:   "lookup",
		ToolName: "lookup",
		Executor: &fnToolExecutor{result: map[string]interface{}{"status": "ok"}},
	}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.Object(map[string]graph.Value{"id": graph.String("1")})

	res := tn.Run(context.Background(), wctx)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	status, _ := res.Output.Get("status")
	if status.AsString() != "ok" {
		t.Fatalf("expected status ok, got %v", res.Output.Native())
	}
}

func TestToolNodePropagatesExecutorError(t *testing.T) {
	tn := &ToolNode{
		NodeID:   "lookup",
		ToolName: "lookup",
		Executor: &fnToolExecutor{err: errors.New("boom")},
	}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	res := tn.Run(context.Background(), wctx)
	if res.Err == nil {
		t.Fatal("expected executor error to propagate")
	}
}

type fnWorkflowExecutor struct {
	finished *graph.WorkflowContext
	err      error
}

func (f *fnWorkflowExecutor) ExecuteWorkflow(ctx context.Context, workflowID string, childCtx *graph.WorkflowContext) (*graph.WorkflowContext, error) {
	return f.finished, f.err
}

func TestSubworkflowMapsOutputFields(t *testing.T) {
	childFinished := graph.NewWorkflowContext("child-wf", "run-1:child", graph.Null())
	childFinished.OutputData = graph.Object(map[string]graph.Value{"confirmation_id": graph.String("abc123")})

	sw := &Subworkflow{
		NodeID:           "child",
		TargetWorkflowID: "child-wf",
		Executor:         &fnWorkflowExecutor{finished: childFinished},
		OutputMapping:    map[string]string{"confirmation": "$output.confirmation_id"},
	}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())

	res := sw.Run(context.Background(), wctx)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	confirmation, _ := res.Output.Get("confirmation")
	if confirmation.AsString() != "abc123" {
		t.Fatalf("expected mapped confirmation 'abc123', got %v", res.Output.Native())
	}
}

func TestSubworkflowKeepsWholeOutputWhenNoMapping(t *testing.T) {
	childFinished := graph.NewWorkflowContext("child-wf", "run-1:child", graph.Null())
	childFinished.OutputData = graph.String("done")

	sw := &Subworkflow{
		NodeID:           "child",
		TargetWorkflowID: "child-wf",
		Executor:         &fnWorkflowExecutor{finished: childFinished},
	}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())

	res := sw.Run(context.Background(), wctx)
	if res.Output.AsString() != "done" {
		t.Fatalf("expected whole child output passed through, got %v", res.Output.Native())
	}
}

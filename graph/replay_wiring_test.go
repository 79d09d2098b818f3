package graph

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/agentgraph/workflow/graph/emit"
)

func recordableLookupSpec(calls *int32) (*Workflow, error) {
	start := NodeFunc{NodeID: "start", Fn: func(ctx context.Context, wctx *WorkflowContext) NodeResult {
		return NodeResult{Output: wctx.OutputData}
	}}
	lookup := NodeFunc{NodeID: "lookup", Fn: func(ctx context.Context, wctx *WorkflowContext) NodeResult {
		atomic.AddInt32(calls, 1)
		return NodeResult{Output: Object(map[string]Value{"price": Number(42)})}
	}}
	end := NodeFunc{NodeID: "end", Fn: func(ctx context.Context, wctx *WorkflowContext) NodeResult {
		return NodeResult{Output: wctx.OutputData}
	}}

	spec := &WorkflowSpec{
		ID:          "wf-replay",
		StartNodeID: "start",
		Nodes: []NodeSpec{
			{ID: "start", NodeType: NodeStart},
			{ID: "lookup", NodeType: NodeWebhook, Config: NodeConfig{Recordable: true}},
			{ID: "end", NodeType: NodeEnd},
		},
		Edges: []EdgeSpec{
			{ID: "e1", SourceNodeID: "start", TargetNodeID: "lookup", EdgeType: EdgeDefault},
			{ID: "e2", SourceNodeID: "lookup", TargetNodeID: "end", EdgeType: EdgeDefault},
		},
	}
	return Build(spec, map[string]Node{"start": start, "lookup": lookup, "end": end})
}

func TestEngineRecordsIOForRecordableNode(t *testing.T) {
	var calls int32
	wf, err := recordableLookupSpec(&calls)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	engine, _ := New(emit.NewNullEmitter())

	if _, err := engine.Execute(context.Background(), wf, "run-1", Null()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	recs := engine.RecordedIOs("run-1")
	if len(recs) != 1 {
		t.Fatalf("expected one recorded IO, got %d", len(recs))
	}
	if recs[0].NodeID != "lookup" {
		t.Fatalf("expected recording for 'lookup', got %q", recs[0].NodeID)
	}
}

func TestEngineReplayReusesRecordedResponseWithoutReexecuting(t *testing.T) {
	var recordCalls int32
	wf, err := recordableLookupSpec(&recordCalls)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	recordEngine, _ := New(emit.NewNullEmitter())
	if _, err := recordEngine.Execute(context.Background(), wf, "run-1", Null()); err != nil {
		t.Fatalf("record Execute: %v", err)
	}
	recs := recordEngine.RecordedIOs("run-1")

	var replayCalls int32
	replayWf, err := recordableLookupSpec(&replayCalls)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	replayEngine, err := New(emit.NewNullEmitter(), WithReplayMode(true), WithRecordedIOs(recs))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	finalCtx, err := replayEngine.Execute(context.Background(), replayWf, "run-2", Null())
	if err != nil {
		t.Fatalf("replay Execute: %v", err)
	}
	if replayCalls != 0 {
		t.Fatalf("expected the recordable node to not re-execute during replay, called %d times", replayCalls)
	}
	price, _ := finalCtx.OutputData.Get("price")
	if price.AsNumber() != 42 {
		t.Fatalf("expected the recorded response to be reused, got %v", finalCtx.OutputData.Native())
	}
}

func TestEngineStrictReplayVerifiesHashAndDetectsMismatch(t *testing.T) {
	var recordCalls int32
	wf, err := recordableLookupSpec(&recordCalls)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	recordEngine, _ := New(emit.NewNullEmitter())
	if _, err := recordEngine.Execute(context.Background(), wf, "run-1", Null()); err != nil {
		t.Fatalf("record Execute: %v", err)
	}
	recs := recordEngine.RecordedIOs("run-1")

	start := NodeFunc{NodeID: "start", Fn: func(ctx context.Context, wctx *WorkflowContext) NodeResult {
		return NodeResult{Output: wctx.OutputData}
	}}
	var driftCalls int32
	drifted := NodeFunc{NodeID: "lookup", Fn: func(ctx context.Context, wctx *WorkflowContext) NodeResult {
		atomic.AddInt32(&driftCalls, 1)
		return NodeResult{Output: Object(map[string]Value{"price": Number(99)})}
	}}
	end := NodeFunc{NodeID: "end", Fn: func(ctx context.Context, wctx *WorkflowContext) NodeResult {
		return NodeResult{Output: wctx.OutputData}
	}}
	spec := &WorkflowSpec{
		ID:          "wf-replay",
		StartNodeID: "start",
		Nodes: []NodeSpec{
			{ID: "start", NodeType: NodeStart},
			{ID: "lookup", NodeType: NodeWebhook, Config: NodeConfig{Recordable: true}},
			{ID: "end", NodeType: NodeEnd},
		},
		Edges: []EdgeSpec{
			{ID: "e1", SourceNodeID: "start", TargetNodeID: "lookup", EdgeType: EdgeDefault},
			{ID: "e2", SourceNodeID: "lookup", TargetNodeID: "end", EdgeType: EdgeDefault},
		},
	}
	driftedWf, err := Build(spec, map[string]Node{"start": start, "lookup": drifted, "end": end})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	replayEngine, err := New(emit.NewNullEmitter(), WithReplayMode(true), WithStrictReplay(true), WithRecordedIOs(recs))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = replayEngine.Execute(context.Background(), driftedWf, "run-3", Null())
	if err == nil {
		t.Fatal("expected strict replay to detect the drifted response and fail")
	}
	if driftCalls != 1 {
		t.Fatalf("expected strict replay to still execute the node live, called %d times", driftCalls)
	}
}

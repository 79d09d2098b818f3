package graph

import (
	"context"
	"testing"

	"github.com/agentgraph/workflow/graph/emit"
)

func TestComputeOrderKeyIsDeterministic(t *testing.T) {
	if ComputeOrderKey("node1", 0) != ComputeOrderKey("node1", 0) {
		t.Fatal("same inputs produced different order keys")
	}
	if ComputeOrderKey("node1", 0) == ComputeOrderKey("node1", 1) {
		t.Fatal("different edge indices collided")
	}
	if ComputeOrderKey("node1", 0) == ComputeOrderKey("node2", 0) {
		t.Fatal("different parent node IDs collided")
	}
}

func TestFrontierDequeuesByOrderKey(t *testing.T) {
	ctx := context.Background()
	f := NewFrontier[frontierItem](ctx, 8)

	items := []WorkItem[frontierItem]{
		{NodeID: "c", OrderKey: 30, State: frontierItem{NodeID: "c"}},
		{NodeID: "a", OrderKey: 10, State: frontierItem{NodeID: "a"}},
		{NodeID: "b", OrderKey: 20, State: frontierItem{NodeID: "b"}},
	}
	for _, it := range items {
		if err := f.Enqueue(ctx, it); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	var order []string
	for f.Len() > 0 {
		item, err := f.Dequeue(ctx)
		if err != nil {
			t.Fatalf("Dequeue: %v", err)
		}
		order = append(order, item.NodeID)
	}
	if order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("expected ascending-OrderKey dequeue order, got %v", order)
	}
}

func TestFrontierMetricsTracksBackpressureAndDepth(t *testing.T) {
	ctx := context.Background()
	f := NewFrontier[frontierItem](ctx, 2)

	if err := f.Enqueue(ctx, WorkItem[frontierItem]{NodeID: "a", OrderKey: 1}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := f.Enqueue(ctx, WorkItem[frontierItem]{NodeID: "b", OrderKey: 2}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	snap := f.Metrics()
	if snap.BackpressureEvents == 0 {
		t.Fatal("expected a backpressure event when the queue reaches capacity")
	}
	if snap.TotalEnqueued != 2 {
		t.Fatalf("expected 2 total enqueued, got %d", snap.TotalEnqueued)
	}
	if snap.PeakQueueDepth != 2 {
		t.Fatalf("expected peak queue depth 2, got %d", snap.PeakQueueDepth)
	}
}

func TestEngineRunsVisitOrderDeterministically(t *testing.T) {
	var visits []string
	recordVisit := func(id string) NodeFunc {
		return NodeFunc{NodeID: id, Fn: func(ctx context.Context, wctx *WorkflowContext) NodeResult {
			visits = append(visits, id)
			return NodeResult{Output: wctx.OutputData}
		}}
	}
	start := recordVisit("start")
	a := recordVisit("a")
	b := recordVisit("b")
	end := recordVisit("end")

	spec := &WorkflowSpec{
		ID:          "wf-fanout",
		StartNodeID: "start",
		Nodes: []NodeSpec{
			{ID: "start", NodeType: NodeStart},
			{ID: "a", NodeType: NodeCustom},
			{ID: "b", NodeType: NodeCustom},
			{ID: "end", NodeType: NodeEnd},
		},
		Edges: []EdgeSpec{
			{ID: "e1", SourceNodeID: "start", TargetNodeID: "a", EdgeType: EdgeDefault},
			{ID: "e2", SourceNodeID: "a", TargetNodeID: "b", EdgeType: EdgeDefault},
			{ID: "e3", SourceNodeID: "b", TargetNodeID: "end", EdgeType: EdgeDefault},
		},
	}

	var firstRun []string
	for i := 0; i < 3; i++ {
		visits = nil
		wf, err := Build(spec, map[string]Node{"start": start, "a": a, "b": b, "end": end})
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		engine, err := New(emit.NewNullEmitter())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if _, err := engine.Execute(context.Background(), wf, "run", Null()); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if i == 0 {
			firstRun = append([]string(nil), visits...)
			continue
		}
		if len(visits) != len(firstRun) {
			t.Fatalf("run %d visited a different number of nodes: %v vs %v", i, visits, firstRun)
		}
		for j := range visits {
			if visits[j] != firstRun[j] {
				t.Fatalf("run %d diverged from run 0 at step %d: %v vs %v", i, j, visits, firstRun)
			}
		}
	}
}

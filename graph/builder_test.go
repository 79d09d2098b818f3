package graph

import "testing"

func TestWorkflowBuilderInfersStartAndEnd(t *testing.T) {
	start := NewNodeBuilder("start", NodeStart)
	mid := NewNodeBuilder("mid", NodeTransform)
	end := NewNodeBuilder("end", NodeEnd)
	edge1 := NewEdgeBuilder("e1", "start", "mid")
	edge2 := NewEdgeBuilder("e2", "mid", "end")

	spec, err := NewWorkflowBuilder("wf-1", "Test workflow").
		AddNode(start).AddNode(mid).AddNode(end).
		AddEdge(edge1).AddEdge(edge2).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if spec.StartNodeID != "start" {
		t.Fatalf("expected inferred start node 'start', got %q", spec.StartNodeID)
	}
	if len(spec.EndNodeIDs) != 1 || spec.EndNodeIDs[0] != "end" {
		t.Fatalf("expected inferred end node 'end', got %v", spec.EndNodeIDs)
	}
}

func TestWorkflowBuilderRejectsDuplicateNodeIDs(t *testing.T) {
	start := NewNodeBuilder("start", NodeStart)
	dup := NewNodeBuilder("start", NodeEnd)

	_, err := NewWorkflowBuilder("wf-1", "Test").
		AddNode(start).AddNode(dup).
		Build()
	if err == nil {
		t.Fatal("expected an error for duplicate node ids")
	}
}

func TestWorkflowBuilderRejectsEdgeToUnknownNode(t *testing.T) {
	start := NewNodeBuilder("start", NodeStart)
	edge := NewEdgeBuilder("e1", "start", "nowhere")

	_, err := NewWorkflowBuilder("wf-1", "Test").
		AddNode(start).AddEdge(edge).
		Build()
	if err == nil {
		t.Fatal("expected an error for an edge targeting an unknown node")
	}
}

func TestWorkflowBuilderRejectsUnreachableNode(t *testing.T) {
	start := NewNodeBuilder("start", NodeStart)
	orphan := NewNodeBuilder("orphan", NodeEnd)

	_, err := NewWorkflowBuilder("wf-1", "Test").
		AddNode(start).AddNode(orphan).
		Build()
	if err == nil {
		t.Fatal("expected an error for a node unreachable from start")
	}
}

func TestWorkflowBuilderRejectsMissingID(t *testing.T) {
	start := NewNodeBuilder("start", NodeStart)
	_, err := NewWorkflowBuilder("", "Test").AddNode(start).Build()
	if err == nil {
		t.Fatal("expected an error for a missing workflow id")
	}
}

func TestWorkflowBuilderExplicitStartAndEndOverrideInference(t *testing.T) {
	a := NewNodeBuilder("a", NodeTransform)
	b := NewNodeBuilder("b", NodeTransform)
	edge := NewEdgeBuilder("e1", "a", "b")

	spec, err := NewWorkflowBuilder("wf-1", "Test").
		WithStartNode("a").WithEndNodes("b").
		AddNode(a).AddNode(b).AddEdge(edge).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if spec.StartNodeID != "a" || spec.EndNodeIDs[0] != "b" {
		t.Fatalf("expected explicit start/end to be honored, got start=%q end=%v", spec.StartNodeID, spec.EndNodeIDs)
	}
}

package node

import (
	"context"

	"github.com/agentgraph/workflow/graph"
)

// Subworkflow runs TargetWorkflowID to completion against a child
// context that inherits every non-private variable from the parent
// (graph.WorkflowContext.ChildContext), then maps the child's final
// output back through OutputMapping: destination field -> path into the
// child's output. An empty OutputMapping keeps the whole child output.
type Subworkflow struct {
	NodeID           string
	TargetWorkflowID string
	Executor         WorkflowExecutor
	OutputMapping    map[string]string
}

func (s *Subworkflow) ID() string { return s.NodeID }

func (s *Subworkflow) Run(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
	if s.Executor == nil {
		return nodeErr(graph.KindNodeValidationError, s.NodeID, "subworkflow node has no executor bound", nil)
	}
	childExecutionID := wctx.ExecutionID + ":" + s.NodeID
	child := wctx.ChildContext(s.TargetWorkflowID, childExecutionID, wctx.OutputData)

	finished, err := s.Executor.ExecuteWorkflow(ctx, s.TargetWorkflowID, child)
	if err != nil {
		return nodeErr(graph.KindSubworkflowError, s.NodeID, "subworkflow "+s.TargetWorkflowID+" failed", err)
	}

	if len(s.OutputMapping) == 0 {
		return graph.NodeResult{Output: finished.OutputData}
	}
	mapped := make(map[string]graph.Value, len(s.OutputMapping))
	for dest, srcPath := range s.OutputMapping {
		v, _ := graph.ResolvePath(finished, srcPath)
		mapped[dest] = v
	}
	return graph.NodeResult{Output: graph.Object(mapped)}
}

package node

import (
	"context"

	"github.com/agentgraph/workflow/graph"
)

// Agent delegates execution to an external collaborator, passing
// workflow/execution/node identity as metadata so the delegate can
// correlate its own logs and side effects back to this run. If
// OutputKey is set, only that field of the delegate's result object is
// kept as this node's output; otherwise the whole result is kept.
type AgentNode struct {
	NodeID    string
	Delegate  Agent
	OutputKey string
}

func (a *AgentNode) ID() string { return a.NodeID }

func (a *AgentNode) Run(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
	if a.Delegate == nil {
		return nodeErr(graph.KindNodeValidationError, a.NodeID, "agent node has no delegate bound", nil)
	}
	meta := map[string]interface{}{
		"workflowId":  wctx.WorkflowID,
		"executionId": wctx.ExecutionID,
		"nodeId":      a.NodeID,
	}
	out, err := a.Delegate.Run(ctx, wctx.OutputData, meta)
	if err != nil {
		return nodeErr(graph.KindNodeExecutionError, a.NodeID, "agent delegate failed", err)
	}
	if a.OutputKey != "" {
		if v, ok := out.Get(a.OutputKey); ok {
			return graph.NodeResult{Output: v}
		}
	}
	return graph.NodeResult{Output: out}
}

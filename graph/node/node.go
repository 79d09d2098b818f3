// Package node provides the concrete graph.Node implementations for every
// node kind a WorkflowSpec can name, plus the NodeFactory that resolves a
// NodeSpec (plus externally supplied agents/tools/models/workflows) into
// one.
//
// Every node reads its step input from wctx.OutputData: the engine sets
// OutputData to the edge-resolved input immediately before calling
// Run, and overwrites it with the node's own Output once Run returns.
// This lets a node's own logic stay ignorant of how its input arrived
// (direct pass-through vs a dataMapping transform) while still letting
// End write a final ctx.OutputData the caller can read back.
package node

import (
	"context"

	"github.com/agentgraph/workflow/graph"
	"github.com/agentgraph/workflow/graph/tool"
)

// Agent is the external collaborator a graph.Node of kind NodeAgent
// delegates to. Metadata carries workflowId/nodeId/executionId so the
// agent can correlate its own side effects back to this run.
type Agent interface {
	Run(ctx context.Context, input graph.Value, metadata map[string]interface{}) (graph.Value, error)
}

// WorkflowExecutor runs a named child workflow to completion from a
// freshly built child WorkflowContext, used by the Subworkflow node.
type WorkflowExecutor interface {
	ExecuteWorkflow(ctx context.Context, workflowID string, childCtx *graph.WorkflowContext) (*graph.WorkflowContext, error)
}

// ToolExecutor is the subset of graph/tool.Executor a Tool node needs.
// graph/tool.Executor satisfies this directly.
type ToolExecutor interface {
	Execute(ctx context.Context, wctx *graph.WorkflowContext, caller tool.CallerContext, input map[string]interface{}, speechOut func(string)) (map[string]interface{}, error)
}

func valueToMap(v graph.Value) map[string]interface{} {
	if m, ok := v.Native().(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func nodeErr(kind graph.ErrorKind, nodeID, msg string, cause error) graph.NodeResult {
	we := graph.NewError(kind, msg).WithNode(nodeID)
	if cause != nil {
		we = we.WithCause(cause)
	}
	return graph.NodeResult{Err: we}
}

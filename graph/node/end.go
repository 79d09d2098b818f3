package node

import (
	"context"

	"github.com/agentgraph/workflow/graph"
)

// End optionally projects a single field out of its input (OutputKey)
// before writing it to wctx.OutputData, and attaches a success message.
// The engine stops routing once it reaches a node of type NodeEnd, so
// End's own edges (if any) are never evaluated.
type End struct {
	NodeID    string
	OutputKey string
}

func (e *End) ID() string { return e.NodeID }

func (e *End) Run(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
	in := wctx.OutputData
	out := in
	if e.OutputKey != "" {
		if v, ok := in.Get(e.OutputKey); ok {
			out = v
		}
	}
	result := graph.Object(map[string]graph.Value{
		"output":  out,
		"message": graph.String("workflow completed successfully"),
	})
	return graph.NodeResult{Output: result}
}

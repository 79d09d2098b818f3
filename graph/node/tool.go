package node

import (
	"context"

	"github.com/agentgraph/workflow/graph"
	"github.com/agentgraph/workflow/graph/tool"
)

// ToolNode invokes a named tool through a shared tool.Executor. The
// step input must be an object Value; its fields become the tool
// call's input map. SpeechEmitter, if set, receives any pre-tool
// filler line the tool's PreToolSpeechConfig selects, for surfacing to
// a voice channel while the (possibly slow) call runs.
type ToolNode struct {
	NodeID        string
	ToolName      string
	Executor      ToolExecutor
	Caller        tool.CallerContext
	SpeechEmitter func(line string)
}

func (t *ToolNode) ID() string { return t.NodeID }

func (t *ToolNode) Run(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
	if t.Executor == nil {
		return nodeErr(graph.KindNodeValidationError, t.NodeID, "tool node has no executor bound", nil)
	}
	caller := t.Caller
	caller.ExecutionID = wctx.ExecutionID

	input := valueToMap(wctx.OutputData)
	result, err := t.Executor.Execute(ctx, wctx, caller, input, t.SpeechEmitter)
	if err != nil {
		return nodeErr(graph.KindToolExecutionError, t.NodeID, "tool "+t.ToolName+" failed", err)
	}
	return graph.NodeResult{Output: graph.FromNative(result)}
}

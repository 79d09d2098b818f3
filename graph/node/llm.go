package node

import (
	"context"

	"github.com/agentgraph/workflow/graph"
	"github.com/agentgraph/workflow/graph/model"
	"github.com/agentgraph/workflow/graph/prompttemplate"
)

// LLM builds a [system?, user] message pair from SystemPrompt/UserTemplate
// (or the raw step input when UserTemplate is empty) and calls Model,
// recording cost against Costs when set. UserTemplate supports "{field}"/
// "{ctx.field}" substitution and "{# if #}/{# elif #}/{# else #}/{# endif #}"
// conditional blocks against the step input object, evaluated in relaxed
// (undefined-as-falsy) mode.
type LLM struct {
	NodeID        string
	Model         model.ChatModel
	ModelName     string
	SystemPrompt  string
	UserTemplate  string
	OutputSchema  map[string]interface{}
	Costs         *graph.CostTracker
}

func (l *LLM) ID() string { return l.NodeID }

func (l *LLM) Run(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
	if l.Model == nil {
		return nodeErr(graph.KindNodeValidationError, l.NodeID, "llm node has no ChatModel bound", nil)
	}

	input := wctx.OutputData
	userMsg := l.UserTemplate
	if userMsg == "" {
		userMsg = input.AsString()
	} else {
		if prompttemplate.HasConditionals(userMsg) {
			rendered, err := prompttemplate.Process(userMsg, input.AsObject(), false)
			if err != nil {
				return nodeErr(graph.KindNodeValidationError, l.NodeID, "failed to process prompt conditionals", err)
			}
			userMsg = rendered
		}
		userMsg = prompttemplate.Substitute(userMsg, input, wctx)
	}
	if l.OutputSchema != nil {
		userMsg += "\n\nRespond with a JSON object only, no prose."
	}

	messages := []model.Message{}
	if l.SystemPrompt != "" {
		messages = append(messages, model.Message{Role: model.RoleSystem, Content: l.SystemPrompt})
	}
	messages = append(messages, model.Message{Role: model.RoleUser, Content: userMsg})

	out, err := l.Model.Chat(ctx, messages, nil)
	if err != nil {
		return nodeErr(graph.KindNodeExecutionError, l.NodeID, "llm call failed", err)
	}

	if l.Costs != nil {
		_ = l.Costs.RecordLLMCall(l.ModelName, 0, 0, l.NodeID)
	}

	result := map[string]graph.Value{
		"content": graph.String(out.Text),
	}
	if l.ModelName != "" {
		result["model"] = graph.String(l.ModelName)
	}
	return graph.NodeResult{Output: graph.Object(result)}
}

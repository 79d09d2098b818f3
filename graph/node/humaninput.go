package node

import (
	"context"
	"strings"

	"github.com/agentgraph/workflow/graph"
	"github.com/agentgraph/workflow/graph/model"
)

// HumanInput is the only node kind that may suspend a run for external
// input. On first visit it has no pending answer, so it signals the
// engine to suspend (NodeResult.Route.To == "__suspend__", carrying a
// suspendId in Output) instead of completing. The engine puts this same
// node id back on its frontier when it suspends; Engine.Resume writes the
// caller's answer into "__hitl_answer__" and continues the run, at which
// point Run finds the answer and completes normally.
type HumanInput struct {
	NodeID           string
	RequiredFields   []string
	FieldPrompts     map[string]string
	ApprovalMode     bool
	RetryOnInvalid   bool
	MaxRetries       int
	ExtractionPrompt string
	Extractor        model.ChatModel
}

func (h *HumanInput) ID() string { return h.NodeID }

func (h *HumanInput) Run(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
	answer, hasAnswer := wctx.Get("__hitl_answer__")
	existingKey := "_hitl_existing_" + h.NodeID

	if hasAnswer {
		existing, _ := wctx.Get(existingKey)
		merged := mergeAnswerFields(existing, answer, h.RequiredFields, h.Extractor != nil)
		wctx.Set(existingKey, merged)
		wctx.Set("__hitl_answer__", graph.Null())

		missing := missingRequiredFields(merged, h.RequiredFields)
		complete := len(missing) == 0

		out := map[string]graph.Value{
			"user_input":     answer,
			"fields":         merged,
			"complete":       graph.Bool(complete),
			"missing_fields": graph.List(stringsToValues(missing)...),
		}
		if h.ApprovalMode {
			approved := parseApproval(answer.AsString())
			out["approved"] = graph.Bool(approved)
		}
		if !complete && h.RetryOnInvalid {
			return graph.NodeResult{
				Route:  graph.Next{To: "__suspend__"},
				Output: graph.Object(mergeStr(out, "suspendId", graph.String(h.NodeID))),
			}
		}
		return graph.NodeResult{Output: graph.Object(out)}
	}

	existing, _ := wctx.Get(existingKey)
	wctx.Set("_hitl_state_"+h.NodeID, graph.String("waiting"))
	wctx.Set("_waiting_for_input", graph.Bool(true))
	wctx.Set("_waiting_node_id", graph.String(h.NodeID))

	out := map[string]graph.Value{
		"status":          graph.String("waiting"),
		"prompt":          graph.String(h.prompt()),
		"required_fields": graph.List(stringsToValues(h.RequiredFields)...),
		"missing_fields":  graph.List(stringsToValues(missingRequiredFields(existing, h.RequiredFields))...),
		"field_prompts":   promptsToValue(h.FieldPrompts),
		"approval_mode":   graph.Bool(h.ApprovalMode),
		"existing_values": existing,
		"suspendId":       graph.String(h.NodeID),
	}
	return graph.NodeResult{Route: graph.Next{To: "__suspend__"}, Output: graph.Object(out)}
}

func (h *HumanInput) prompt() string {
	if len(h.RequiredFields) == 0 {
		return "Please provide additional information."
	}
	return "Please provide: " + strings.Join(h.RequiredFields, ", ")
}

func mergeAnswerFields(existing, answer graph.Value, required []string, hasExtractor bool) graph.Value {
	merged := make(map[string]graph.Value)
	for k, v := range existing.AsObject() {
		merged[k] = v
	}
	if obj := answer.AsObject(); len(obj) > 0 {
		for k, v := range obj {
			merged[k] = v
		}
	} else if len(required) == 1 {
		merged[required[0]] = answer
	}
	return graph.Object(merged)
}

func missingRequiredFields(values graph.Value, required []string) []string {
	var missing []string
	for _, f := range required {
		if v, ok := values.Get(f); !ok || v.IsEmpty() {
			missing = append(missing, f)
		}
	}
	return missing
}

func parseApproval(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "yes" || s == "y" || s == "approve" || s == "approved" || s == "true"
}

func promptsToValue(prompts map[string]string) graph.Value {
	out := make(map[string]graph.Value, len(prompts))
	for k, v := range prompts {
		out[k] = graph.String(v)
	}
	return graph.Object(out)
}

func mergeStr(m map[string]graph.Value, key string, v graph.Value) map[string]graph.Value {
	m[key] = v
	return m
}

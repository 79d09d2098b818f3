package node

import (
	"context"
	"strings"
	"testing"

	"github.com/agentgraph/workflow/graph"
	"github.com/agentgraph/workflow/graph/model"
)

func TestLLMSubstitutesUserTemplateFields(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "hi there"}}}
	l := &LLM{NodeID: "ask", Model: mock, UserTemplate: "Hello {name}"}

	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.Object(map[string]graph.Value{"name": graph.String("Ada")})

	res := l.Run(context.Background(), wctx)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(mock.Calls) != 1 {
		t.Fatalf("expected one model call, got %d", len(mock.Calls))
	}
	last := mock.Calls[0].Messages[len(mock.Calls[0].Messages)-1]
	if last.Content != "Hello Ada" {
		t.Fatalf("expected substituted user message, got %q", last.Content)
	}
	content, _ := res.Output.Get("content")
	if content.AsString() != "hi there" {
		t.Fatalf("expected model response content, got %q", content.AsString())
	}
}

func TestLLMEvaluatesConditionalDirectivesInUserTemplate(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "ok"}}}
	l := &LLM{
		NodeID:       "ask",
		Model:        mock,
		UserTemplate: "{# if is_premium #}Welcome, {name}!{# else #}Hi, {name}.{# endif #}",
	}

	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.Object(map[string]graph.Value{
		"name":       graph.String("Ada"),
		"is_premium": graph.Bool(true),
	})

	res := l.Run(context.Background(), wctx)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	last := mock.Calls[0].Messages[len(mock.Calls[0].Messages)-1]
	if last.Content != "Welcome, Ada!" {
		t.Fatalf("expected conditional branch rendered before substitution, got %q", last.Content)
	}
}

func TestLLMUsesRawInputWhenNoUserTemplate(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "ok"}}}
	l := &LLM{NodeID: "ask", Model: mock}

	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.String("raw question")

	res := l.Run(context.Background(), wctx)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	last := mock.Calls[0].Messages[len(mock.Calls[0].Messages)-1]
	if last.Content != "raw question" {
		t.Fatalf("expected raw input passed through, got %q", last.Content)
	}
}

func TestLLMWithoutModelErrors(t *testing.T) {
	l := &LLM{NodeID: "ask"}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	res := l.Run(context.Background(), wctx)
	if res.Err == nil {
		t.Fatal("expected an error when no ChatModel is bound")
	}
	if !strings.Contains(res.Err.Error(), "ChatModel") {
		t.Fatalf("expected error to mention the missing ChatModel, got %v", res.Err)
	}
}

func TestLLMRecordsCostWhenTrackerSet(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "ok"}}}
	costs := graph.NewCostTracker("run-1", "USD")
	l := &LLM{NodeID: "ask", Model: mock, ModelName: "gpt-4o-mini", Costs: costs}

	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.String("hi")

	if res := l.Run(context.Background(), wctx); res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(costs.GetCallHistory()) != 1 {
		t.Fatalf("expected one recorded call, got %d", len(costs.GetCallHistory()))
	}
}

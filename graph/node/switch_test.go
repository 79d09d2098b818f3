package node

import (
	"context"
	"testing"

	"github.com/agentgraph/workflow/graph"
)

func TestSwitchRoutesToMatchingCase(t *testing.T) {
	s := &Switch{
		NodeID:      "lang-switch",
		SwitchField: "language",
		Cases: []SwitchCase{
			{Values: []string{"es", "es-MX"}, TargetNodeID: "spanish"},
			{Values: []string{"fr"}, TargetNodeID: "french"},
		},
		DefaultTarget: "english",
	}

	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.Object(map[string]graph.Value{"language": graph.String("fr")})

	res := s.Run(context.Background(), wctx)
	if res.Route.To != "french" {
		t.Fatalf("expected route to 'french', got %q", res.Route.To)
	}
	target, _ := wctx.Get("switch_target")
	if target.AsString() != "french" {
		t.Fatalf("expected switch_target 'french', got %q", target.AsString())
	}
}

func TestSwitchFallsBackToDefaultTarget(t *testing.T) {
	s := &Switch{
		NodeID:        "lang-switch",
		SwitchField:   "language",
		Cases:         []SwitchCase{{Values: []string{"es"}, TargetNodeID: "spanish"}},
		DefaultTarget: "english",
	}

	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.Object(map[string]graph.Value{"language": graph.String("de")})

	res := s.Run(context.Background(), wctx)
	if res.Route.To != "english" {
		t.Fatalf("expected fallback route to 'english', got %q", res.Route.To)
	}
	matchedCase, _ := wctx.Get("switch_case")
	if matchedCase.AsString() != "" {
		t.Fatalf("expected empty switch_case on default fallback, got %q", matchedCase.AsString())
	}
}

func TestSwitchCaseInsensitiveMatch(t *testing.T) {
	s := &Switch{
		NodeID:          "lang-switch",
		SwitchField:     "language",
		Cases:           []SwitchCase{{Values: []string{"ES"}, TargetNodeID: "spanish"}},
		DefaultTarget:   "english",
		CaseInsensitive: true,
	}

	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.Object(map[string]graph.Value{"language": graph.String("es")})

	res := s.Run(context.Background(), wctx)
	if res.Route.To != "spanish" {
		t.Fatalf("expected case-insensitive match to route to 'spanish', got %q", res.Route.To)
	}
}

func TestSwitchReadsBareValueFieldWhenSwitchFieldEmpty(t *testing.T) {
	s := &Switch{
		NodeID:        "generic-switch",
		Cases:         []SwitchCase{{Values: []string{"a"}, TargetNodeID: "branch-a"}},
		DefaultTarget: "branch-default",
	}

	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.Object(map[string]graph.Value{"value": graph.String("a")})

	res := s.Run(context.Background(), wctx)
	if res.Route.To != "branch-a" {
		t.Fatalf("expected route to 'branch-a', got %q", res.Route.To)
	}
}

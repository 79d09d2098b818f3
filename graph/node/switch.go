package node

import (
	"context"
	"strings"

	"github.com/agentgraph/workflow/graph"
)

// SwitchCase matches one or more Values against the switch field/value
// and, on a match, names TargetNodeID directly (unlike Decision, whose
// result is matched by edge conditions rather than naming a node id).
type SwitchCase struct {
	Values       []string
	TargetNodeID string
}

// Switch reads SwitchField from the step input (or the input's bare
// "value" field if SwitchField is empty), matches it against Cases in
// order, and writes switch_target/switch_value/switch_case into the
// context for edge evaluation, in addition to routing directly via
// NodeResult.Route.
type Switch struct {
	NodeID          string
	SwitchField     string
	Cases           []SwitchCase
	DefaultTarget   string
	CaseInsensitive bool
}

func (s *Switch) ID() string { return s.NodeID }

func (s *Switch) Run(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
	input := wctx.OutputData
	var value graph.Value
	if s.SwitchField != "" {
		value, _ = input.Get(s.SwitchField)
	} else {
		value, _ = input.Get("value")
	}
	valStr := value.AsString()

	target := s.DefaultTarget
	matchedCase := ""
	for _, c := range s.Cases {
		if containsCaseValue(c.Values, valStr, s.CaseInsensitive) {
			target = c.TargetNodeID
			matchedCase = c.TargetNodeID
			break
		}
	}

	wctx.Set("switch_target", graph.String(target))
	wctx.Set("switch_value", value)
	wctx.Set("switch_case", graph.String(matchedCase))

	result := graph.NodeResult{Output: graph.Object(map[string]graph.Value{
		"switch_target": graph.String(target),
		"switch_value":  value,
		"switch_case":   graph.String(matchedCase),
	})}
	if target != "" {
		result.Route = graph.Goto(target)
	}
	return result
}

func containsCaseValue(values []string, v string, caseInsensitive bool) bool {
	for _, candidate := range values {
		if caseInsensitive {
			if strings.EqualFold(candidate, v) {
				return true
			}
		} else if candidate == v {
			return true
		}
	}
	return false
}

package node

import (
	"context"

	"github.com/agentgraph/workflow/graph"
)

// Start stashes the execution's original input as its output, applying
// DefaultValues for any object field the input left unset. It never
// fails: a JSONSchema mismatch (if Schema is set) is recorded into the
// context instead of raising, matching the spec's "records errors in
// ctx, does not fail" contract for the start node.
type Start struct {
	NodeID        string
	DefaultValues map[string]graph.Value
	Schema        map[string]interface{}
}

func (s *Start) ID() string { return s.NodeID }

func (s *Start) Run(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
	out := wctx.InputData
	if len(s.DefaultValues) > 0 {
		merged := make(map[string]graph.Value, len(s.DefaultValues))
		for k, v := range s.DefaultValues {
			merged[k] = v
		}
		for k, v := range out.AsObject() {
			merged[k] = v
		}
		out = graph.Object(merged)
	}
	if s.Schema != nil {
		if missing := requiredFieldsMissing(s.Schema, out); len(missing) > 0 {
			wctx.Set("_start_schema_errors", graph.List(stringsToValues(missing)...))
		}
	}
	return graph.NodeResult{Output: out}
}

func requiredFieldsMissing(schema map[string]interface{}, v graph.Value) []string {
	req, ok := schema["required"].([]interface{})
	if !ok {
		return nil
	}
	var missing []string
	for _, r := range req {
		name, ok := r.(string)
		if !ok {
			continue
		}
		if _, present := v.Get(name); !present {
			missing = append(missing, name)
		}
	}
	return missing
}

func stringsToValues(ss []string) []graph.Value {
	out := make([]graph.Value, len(ss))
	for i, s := range ss {
		out[i] = graph.String(s)
	}
	return out
}

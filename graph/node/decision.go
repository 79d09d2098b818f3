package node

import (
	"context"

	"github.com/agentgraph/workflow/graph"
)

// DecisionCase pairs a named outcome with the condition group that
// selects it. Cases are evaluated in order; the first whose group
// evaluates true wins.
type DecisionCase struct {
	Result    string
	Condition graph.ConditionGroup
}

// Decision evaluates an ordered list of Cases against the step input
// and context, producing a named decision value for outgoing edges to
// match on (rather than writing a direct target node id, which is
// Switch's job). DefaultResult is used when no case matches.
type Decision struct {
	NodeID        string
	Cases         []DecisionCase
	DefaultResult string
}

func (d *Decision) ID() string { return d.NodeID }

func (d *Decision) Run(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
	decision := d.DefaultResult
	for i := range d.Cases {
		if d.Cases[i].Condition.Evaluate(wctx) {
			decision = d.Cases[i].Result
			break
		}
	}
	return graph.NodeResult{Output: graph.Object(map[string]graph.Value{
		"decision": graph.String(decision),
		"input":    wctx.OutputData,
	})}
}

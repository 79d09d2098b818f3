package node

import (
	"context"

	"github.com/agentgraph/workflow/graph"
)

// Loop runs Body once per iteration against a shared WorkflowContext
// (unlike Parallel, iterations are not cloned: each sees the previous
// iteration's writes), incrementing IterationVar and optionally
// appending Body's output to AccumulatorVar. It exits when the
// iteration count reaches MaxIterations (default 10) or ExitCondition
// evaluates true, whichever comes first, and routes to LoopBackTo (to
// repeat, re-enqueued by the caller honoring NodeResult.Route) or
// ExitTo (to leave the loop).
type Loop struct {
	NodeID         string
	Body           graph.Node
	MaxIterations  int
	IterationVar   string
	AccumulatorVar string
	ExitCondition  *graph.ConditionGroup
	LoopBackTo     string
	ExitTo         string
}

func (l *Loop) ID() string { return l.NodeID }

func (l *Loop) Run(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
	maxIter := l.MaxIterations
	if maxIter <= 0 {
		maxIter = 10
	}
	iterVar := l.IterationVar
	if iterVar == "" {
		iterVar = "loop_iteration"
	}

	current, _ := wctx.Get(iterVar)
	iteration := int(current.AsNumber()) + 1
	wctx.Set(iterVar, graph.Number(float64(iteration)))

	var bodyOutput graph.Value
	if l.Body != nil {
		res := l.Body.Run(ctx, wctx)
		if res.Err != nil {
			return graph.NodeResult{Err: res.Err}
		}
		bodyOutput = res.Output
	} else {
		bodyOutput = wctx.OutputData
	}

	if l.AccumulatorVar != "" {
		acc, _ := wctx.Get(l.AccumulatorVar)
		items := append(append([]graph.Value{}, acc.AsList()...), bodyOutput)
		wctx.Set(l.AccumulatorVar, graph.List(items...))
	}

	exit := iteration >= maxIter
	if !exit && l.ExitCondition != nil {
		exit = l.ExitCondition.Evaluate(wctx)
	}

	output := map[string]graph.Value{
		"continue_loop": graph.Bool(!exit),
		"iteration":     graph.Number(float64(iteration)),
		"data":          bodyOutput,
	}
	if l.AccumulatorVar != "" {
		acc, _ := wctx.Get(l.AccumulatorVar)
		output["accumulated"] = acc
	}

	result := graph.NodeResult{}
	if exit {
		output["exit_to"] = graph.String(l.ExitTo)
		if l.ExitTo != "" {
			result.Route = graph.Goto(l.ExitTo)
		}
	} else {
		output["loop_back_to"] = graph.String(l.LoopBackTo)
		if l.LoopBackTo != "" {
			result.Route = graph.Goto(l.LoopBackTo)
		}
	}
	result.Output = graph.Object(output)
	return result
}

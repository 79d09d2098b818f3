package node

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentgraph/workflow/graph"
)

// CollectMode controls how Parallel assembles its branches' outputs.
type CollectMode string

const (
	CollectDict  CollectMode = "dict"  // {branchName: output}
	CollectList  CollectMode = "list"  // [output, ...] in branch order
	CollectMerge CollectMode = "merge" // shallow-merge every branch's object output
)

// Branch is one Parallel fan-out target: a node run against a cloned
// WorkflowContext and the shared step input.
type Branch struct {
	Name string
	Node graph.Node
}

// ParallelExecutionError aggregates every branch failure when FailFast
// is false, so the caller sees all concurrent failures at once rather
// than only the first.
type ParallelExecutionError struct {
	Failures map[string]error
}

func (e *ParallelExecutionError) Error() string {
	return fmt.Sprintf("%d parallel branch(es) failed", len(e.Failures))
}

// Parallel fans out to Branches under a MaxConcurrency semaphore, each
// on its own WorkflowContext.Clone() so branch mutations never leak to
// siblings. FailFast stops (cancelling remaining branches' context) on
// the first failure; otherwise every branch runs to completion and
// failures are gathered into a ParallelExecutionError.
type Parallel struct {
	NodeID        string
	Branches      []Branch
	MaxConcurrency int
	FailFast      bool
	Collect       CollectMode
}

func (p *Parallel) ID() string { return p.NodeID }

func (p *Parallel) Run(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
	if len(p.Branches) == 0 {
		return graph.NodeResult{Output: graph.Object(nil)}
	}
	maxConc := p.MaxConcurrency
	if maxConc <= 0 {
		maxConc = len(p.Branches)
	}
	sem := make(chan struct{}, maxConc)

	branchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type branchOutcome struct {
		name   string
		output graph.Value
		err    error
	}
	outcomes := make([]branchOutcome, len(p.Branches))

	var wg sync.WaitGroup
	for i, b := range p.Branches {
		wg.Add(1)
		go func(i int, b Branch) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			clone := wctx.Clone()
			result := b.Node.Run(branchCtx, clone)
			if result.Err != nil {
				outcomes[i] = branchOutcome{name: b.Name, err: result.Err}
				if p.FailFast {
					cancel()
				}
				return
			}
			wctx.MergeFrom(clone)
			outcomes[i] = branchOutcome{name: b.Name, output: result.Output}
		}(i, b)
	}
	wg.Wait()

	failures := map[string]error{}
	for _, o := range outcomes {
		if o.err != nil {
			failures[o.name] = o.err
		}
	}
	if len(failures) > 0 {
		return graph.NodeResult{Err: &ParallelExecutionError{Failures: failures}}
	}

	switch p.Collect {
	case CollectList:
		items := make([]graph.Value, len(outcomes))
		for i, o := range outcomes {
			items[i] = o.output
		}
		return graph.NodeResult{Output: graph.List(items...)}
	case CollectMerge:
		merged := graph.Value{}
		for _, o := range outcomes {
			merged = graph.MergeObjects(merged, o.output)
		}
		return graph.NodeResult{Output: merged}
	default: // CollectDict
		obj := make(map[string]graph.Value, len(outcomes))
		for _, o := range outcomes {
			obj[o.name] = o.output
		}
		return graph.NodeResult{Output: graph.Object(obj)}
	}
}

package node

import (
	"context"
	"time"

	"github.com/agentgraph/workflow/graph"
)

// Delay sleeps for DelaySeconds (or, if set, DelayMs takes precedence
// at sub-second granularity) and passes its input through unchanged.
type Delay struct {
	NodeID       string
	DelaySeconds float64
	DelayMs      int
}

func (d *Delay) ID() string { return d.NodeID }

func (d *Delay) Run(ctx context.Context, wctx *graph.WorkflowContext) graph.NodeResult {
	dur := time.Duration(d.DelaySeconds * float64(time.Second))
	if d.DelayMs > 0 {
		dur = time.Duration(d.DelayMs) * time.Millisecond
	}
	if dur > 0 {
		select {
		case <-ctx.Done():
			return graph.NodeResult{Err: ctx.Err()}
		case <-time.After(dur):
		}
	}
	return graph.NodeResult{Output: wctx.OutputData}
}

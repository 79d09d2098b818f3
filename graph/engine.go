package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/agentgraph/workflow/graph/emit"
)

// Options configures an Engine. Every field has a sensible zero value, so
// graph.New(emitter) alone is a valid engine (New fills in QueueDepth,
// DefaultNodeTimeout and BackpressureTimeout, and run() caps an unset
// MaxSteps at 10000); MaxSteps and DefaultNodeTimeout are set via the
// functional options in options.go.
type Options struct {
	// MaxSteps caps the total number of node executions in one run,
	// guarding against a workflow whose loop/exit conditions never
	// fire. Kept under the teacher's original field name; NodeSpec's
	// own MaxIterations (Loop node, per-node bound) is distinct.
	MaxSteps int

	// MaxConcurrentNodes is stored by its functional option, but neither
	// the engine loop nor the Parallel node reads it, so it places no
	// bound on how many Parallel-branch goroutines run at once.
	MaxConcurrentNodes int

	// QueueDepth sizes the Frontier backing the main execution loop.
	QueueDepth int

	// BackpressureTimeout is defaulted by New but not read anywhere: a
	// full frontier's Enqueue blocks until space frees up or the run's
	// context ends, with no separate timeout.
	BackpressureTimeout time.Duration

	// DefaultNodeTimeout applies to any node without its own
	// NodeSpec.Config.TimeoutS override.
	DefaultNodeTimeout time.Duration

	// RunWallClockBudget bounds total execution wall-clock time.
	RunWallClockBudget time.Duration

	// ReplayMode/StrictReplay control checkpoint replay verification;
	// kept from the teacher for parity with graph/replay.go, exercised
	// by nodes whose NodeConfig.Recordable is true. In replay mode, a
	// recordable node's recorded response (from RecordedIOs) is reused
	// instead of re-executing the node, unless StrictReplay is set, in
	// which case the node still runs live and its result is hashed
	// against the recording to detect non-determinism.
	ReplayMode   bool
	StrictReplay bool

	// RecordedIOs seeds a replay run with the I/O captured during a
	// prior, non-replay execution of the same workflow.
	RecordedIOs []RecordedIO

	Metrics     *PrometheusMetrics
	CostTracker *CostTracker
}

// Workflow is a validated, buildable WorkflowSpec paired with resolved
// Node implementations, produced by Build.
type Workflow struct {
	Spec  *WorkflowSpec
	Nodes map[string]Node

	edgesBySource map[string][]*EdgeSpec
}

func newWorkflow(spec *WorkflowSpec, nodes map[string]Node) *Workflow {
	wf := &Workflow{Spec: spec, Nodes: nodes, edgesBySource: make(map[string][]*EdgeSpec)}
	for i := range spec.Edges {
		e := &spec.Edges[i]
		wf.edgesBySource[e.SourceNodeID] = append(wf.edgesBySource[e.SourceNodeID], e)
	}
	for source, edges := range wf.edgesBySource {
		sort.SliceStable(edges, func(i, j int) bool {
			return edgePriority(edges[i]) > edgePriority(edges[j])
		})
		wf.edgesBySource[source] = edges
	}
	return wf
}

// edgePriority is an edge's effective sort key for routing: its declared
// Priority, except EdgeFallback edges which are always forced below every
// other edge on the same source node regardless of their own Priority
// field, so a fallback only ever fires once nothing else matched.
func edgePriority(e *EdgeSpec) int {
	if e.EdgeType == EdgeFallback {
		return math.MinInt32
	}
	return e.Priority
}

// Engine walks one Workflow at a time, driving the FIFO frontier, routing
// through edges, retrying and timing out nodes per policy, and keeping
// per-execution state in memory for pause/resume/HITL suspension; it
// does not write checkpoints to a store. Concurrency within one
// execution is limited to what a Parallel node launches itself: the
// engine's own main loop is single-threaded per execution, matching the
// single-process scope this runtime targets.
type Engine struct {
	emitter emit.Emitter
	opts    Options

	mu         sync.Mutex
	executions map[string]*executionState
}

// executionState tracks one in-flight or paused execution, keyed by
// ExecutionID, so Pause/Resume/Cancel can find it.
type executionState struct {
	wf       *Workflow
	wctx     *WorkflowContext
	frontier *Frontier[frontierItem]
	status   executionStatus
	err      error
	mu       sync.Mutex

	// recordedIOs accumulates RecordedIO entries for Recordable nodes as
	// they execute in record mode (ReplayMode=false); replay.go's
	// recordIO builds each entry, lookupRecordedIO reads opts.RecordedIOs
	// on the replay side.
	recordedIOs []RecordedIO
	// attempts counts visits per node, keyed by node ID, so repeated
	// visits to a loop body node each get their own (nodeID, attempt)
	// RecordedIO slot instead of colliding on attempt 0.
	attempts map[string]int

	// startedAt marks when this execution's main loop first began, set
	// once in run() and never reset across Pause/Resume, so a paused
	// execution's elapsed wall clock keeps counting against
	// WorkflowSpec.TimeoutSeconds.
	startedAt time.Time
	// iterations counts main-loop ticks across run()/drain() calls for
	// this execution, checked against WorkflowSpec.MaxIterations. Only
	// ever touched from the single goroutine driving this execution's
	// loop, like frontier and the rest of executionState's unlocked
	// fields.
	iterations int
}

// checkWorkflowLimits enforces the workflow's own declared MaxIterations
// and TimeoutSeconds, independent of the engine-wide Options.MaxSteps
// ceiling and Options.RunWallClockBudget. A zero MaxIterations or
// TimeoutSeconds means the workflow spec didn't set a bound, so that
// check is skipped.
func (e *Engine) checkWorkflowLimits(wf *Workflow, es *executionState) error {
	es.iterations++
	if wf.Spec.MaxIterations > 0 && es.iterations > wf.Spec.MaxIterations {
		return NewError(KindMaxIterationsExceeded, "workflow exceeded maxIterations").
			WithDetail("maxIterations", wf.Spec.MaxIterations)
	}
	if wf.Spec.TimeoutSeconds > 0 {
		elapsed := time.Since(es.startedAt).Seconds()
		if elapsed > wf.Spec.TimeoutSeconds {
			return NewError(KindWorkflowTimeout, "workflow exceeded timeoutSeconds").
				WithDetail("timeoutSeconds", wf.Spec.TimeoutSeconds)
		}
	}
	return nil
}

// RecordedIOs returns the I/O captured so far by nodes with
// NodeConfig.Recordable=true during a record-mode execution. Pass the
// result to WithRecordedIOs on a later Engine to replay this run.
func (e *Engine) RecordedIOs(executionID string) []RecordedIO {
	e.mu.Lock()
	es, ok := e.executions[executionID]
	e.mu.Unlock()
	if !ok {
		return nil
	}
	es.mu.Lock()
	defer es.mu.Unlock()
	out := make([]RecordedIO, len(es.recordedIOs))
	copy(out, es.recordedIOs)
	return out
}

type executionStatus string

const (
	statusRunning   executionStatus = "running"
	statusPaused    executionStatus = "paused"
	statusSuspended executionStatus = "suspended_for_input"
	statusCompleted executionStatus = "completed"
	statusFailed    executionStatus = "failed"
	statusCancelled executionStatus = "cancelled"
)

// frontierItem is the per-step payload threaded through the teacher's
// generic scheduler types (WorkItem[S]/Frontier[S]), instantiated here
// with S = frontierItem instead of a full state copy: the shared
// *WorkflowContext already carries state, so the frontier only needs to
// remember which node runs next and what its resolved input is.
type frontierItem struct {
	NodeID  string
	Input   Value
	FromErr error
}

// New constructs an Engine. emitter may be emit.NewNullEmitter() if no
// observability backend is wired up.
func New(emitter emit.Emitter, options ...Option) (*Engine, error) {
	cfg := &engineConfig{}
	for _, opt := range options {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.opts.QueueDepth == 0 {
		cfg.opts.QueueDepth = 1024
	}
	if cfg.opts.DefaultNodeTimeout == 0 {
		cfg.opts.DefaultNodeTimeout = 30 * time.Second
	}
	if cfg.opts.BackpressureTimeout == 0 {
		cfg.opts.BackpressureTimeout = 30 * time.Second
	}
	return &Engine{
		emitter:    emitter,
		opts:       cfg.opts,
		executions: make(map[string]*executionState),
	}, nil
}

// Build validates a WorkflowSpec against its resolved node implementations
// and returns an executable Workflow. See graph/builder.go for the
// higher-level fluent construction API; Build is the lower-level entry
// point builders and the spec registry both funnel through.
func Build(spec *WorkflowSpec, nodes map[string]Node) (*Workflow, error) {
	if spec == nil {
		return nil, NewError(KindWorkflowBuildError, "workflow spec is nil")
	}
	if spec.StartNodeID == "" {
		return nil, NewError(KindWorkflowBuildError, "workflow has no startNodeId")
	}
	if _, ok := nodes[spec.StartNodeID]; !ok {
		return nil, NewError(KindWorkflowBuildError, "start node not found among resolved nodes").WithNode(spec.StartNodeID)
	}
	seen := make(map[string]bool, len(spec.Nodes))
	for _, n := range spec.Nodes {
		if seen[n.ID] {
			return nil, NewError(KindWorkflowBuildError, "duplicate node id "+n.ID)
		}
		seen[n.ID] = true
		if _, ok := nodes[n.ID]; !ok {
			return nil, NewError(KindWorkflowBuildError, "no Node implementation resolved for node spec").WithNode(n.ID)
		}
	}
	for _, e := range spec.Edges {
		if !seen[e.SourceNodeID] {
			return nil, NewError(KindWorkflowBuildError, "edge references unknown source node").WithNode(e.SourceNodeID)
		}
		if !seen[e.TargetNodeID] {
			return nil, NewError(KindWorkflowBuildError, "edge references unknown target node").WithNode(e.TargetNodeID)
		}
	}
	return newWorkflow(spec, nodes), nil
}

// Execute runs wf to completion (or failure, pause, or HITL suspension)
// starting from input, returning the final WorkflowContext. Use
// ExecuteStreaming instead to observe each step as it happens.
func (e *Engine) Execute(ctx context.Context, wf *Workflow, executionID string, input Value) (*WorkflowContext, error) {
	return e.run(ctx, wf, executionID, input, nil)
}

// StepObserver receives one notification per node execution, used by
// ExecuteStreaming for live progress reporting (voice UIs, dashboards).
type StepObserver func(wctx *WorkflowContext, nodeID string, result NodeResult)

// ExecuteStreaming behaves like Execute but invokes observe after every
// node completes (successfully or not), before routing is evaluated.
func (e *Engine) ExecuteStreaming(ctx context.Context, wf *Workflow, executionID string, input Value, observe StepObserver) (*WorkflowContext, error) {
	return e.run(ctx, wf, executionID, input, observe)
}

func (e *Engine) run(ctx context.Context, wf *Workflow, executionID string, input Value, observe StepObserver) (*WorkflowContext, error) {
	if e.opts.RunWallClockBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.RunWallClockBudget)
		defer cancel()
	}

	wctx := NewWorkflowContext(wf.Spec.ID, executionID, input)
	frontier := NewFrontier[frontierItem](ctx, e.opts.QueueDepth)

	es := &executionState{wf: wf, wctx: wctx, frontier: frontier, status: statusRunning, startedAt: time.Now()}
	e.mu.Lock()
	e.executions[executionID] = es
	e.mu.Unlock()

	if err := frontier.Enqueue(ctx, WorkItem[frontierItem]{
		NodeID:   wf.Spec.StartNodeID,
		OrderKey: ComputeOrderKey("", 0),
		State:    frontierItem{NodeID: wf.Spec.StartNodeID, Input: input},
	}); err != nil {
		return wctx, err
	}

	steps := 0
	maxSteps := e.opts.MaxSteps
	if maxSteps == 0 {
		maxSteps = 10000
	}
	var reportedBackpressure int32

	for frontier.Len() > 0 {
		es.mu.Lock()
		status, statusErr := es.status, es.err
		es.mu.Unlock()
		if status == statusPaused {
			return wctx, nil
		}
		if status == statusCancelled {
			return wctx, statusErr
		}

		if ctx.Err() != nil {
			e.finish(es, statusFailed, ctx.Err())
			return wctx, ctx.Err()
		}

		steps++
		if steps > maxSteps {
			e.finish(es, statusFailed, ErrMaxStepsExceeded)
			return wctx, NewError(KindMaxIterationsExceeded, "workflow exceeded MaxSteps").WithDetail("maxSteps", maxSteps)
		}
		if lerr := e.checkWorkflowLimits(wf, es); lerr != nil {
			e.finish(es, statusFailed, lerr)
			return wctx, lerr
		}

		e.reportQueueMetrics(executionID, frontier, &reportedBackpressure)

		item, err := frontier.Dequeue(ctx)
		if err != nil {
			e.finish(es, statusFailed, err)
			return wctx, err
		}

		node, ok := wf.Nodes[item.State.NodeID]
		if !ok {
			werr := NewError(KindNodeNotFound, "no node registered").WithNode(item.State.NodeID)
			e.finish(es, statusFailed, werr)
			return wctx, werr
		}

		wctx.OutputData = item.State.Input
		nodeSpec := findNodeSpec(wf.Spec, item.State.NodeID)
		if e.opts.Metrics != nil {
			e.opts.Metrics.UpdateInflightNodes(1)
		}
		result := e.runNodeWithPolicy(ctx, node, nodeSpec, wctx, es)
		if e.opts.Metrics != nil {
			e.opts.Metrics.UpdateInflightNodes(0)
		}

		if observe != nil {
			observe(wctx, item.State.NodeID, result)
		}
		e.emitStep(wctx, item.State.NodeID, result)

		if result.Err != nil {
			wctx.SetNodeState(item.State.NodeID, StateFailed)
			wctx.VisitWithoutOutput(item.State.NodeID)
			we := asWorkflowError(result.Err, item.State.NodeID)
			wctx.SetError(we)
		} else {
			wctx.SetNodeState(item.State.NodeID, StateCompleted)
			wctx.CompleteNode(item.State.NodeID, result.Output)
			wctx.OutputData = result.Output
			wctx.ClearError()
		}

		if suspendID, suspended := isHITLSuspend(result); suspended {
			// Put the waiting node back so Resume runs it again.
			if err := frontier.Enqueue(ctx, item); err != nil {
				e.finish(es, statusFailed, err)
				return wctx, err
			}
			e.suspendForInput(es, item.State.NodeID, suspendID)
			return wctx, nil
		}

		if nodeSpec != nil && nodeSpec.NodeType == NodeEnd {
			e.finish(es, statusCompleted, nil)
			return wctx, nil
		}

		nexts, terminal, rerr := e.route(wf, item.State.NodeID, wctx, result)
		if rerr != nil {
			e.finish(es, statusFailed, rerr)
			return wctx, rerr
		}
		if terminal {
			e.finish(es, statusCompleted, nil)
			return wctx, nil
		}
		for edgeIndex, next := range nexts {
			nextInput := wctx.OutputData
			if mapped := nextDataMapping(wf, item.State.NodeID, next); mapped != nil {
				nextInput = TransformData(wctx, mapped)
			}
			if err := frontier.Enqueue(ctx, WorkItem[frontierItem]{
				NodeID:       next,
				OrderKey:     ComputeOrderKey(item.State.NodeID, edgeIndex),
				ParentNodeID: item.State.NodeID,
				EdgeIndex:    edgeIndex,
				State:        frontierItem{NodeID: next, Input: nextInput},
			}); err != nil {
				e.finish(es, statusFailed, err)
				return wctx, err
			}
		}
	}

	e.finish(es, statusCompleted, nil)
	return wctx, nil
}

// runNodeWithPolicy executes one node honoring its NodeConfig-derived
// NodePolicy (per-node timeout and retry-with-backoff), then applies
// replay semantics for nodes with NodeConfig.Recordable=true: in record
// mode (ReplayMode=false) the step's input/output is captured into
// es.recordedIOs; in replay mode, a matching recording is returned
// directly unless StrictReplay requires the node to still run live so its
// result can be hash-verified against the recording.
func (e *Engine) runNodeWithPolicy(ctx context.Context, node Node, spec *NodeSpec, wctx *WorkflowContext, es *executionState) NodeResult {
	wctx.SetNodeState(node.ID(), StateRunning)

	visit := es.nextAttempt(node.ID())
	recordable := spec != nil && spec.Config.Recordable

	if e.opts.ReplayMode && recordable {
		if recorded, found := lookupRecordedIO(e.opts.RecordedIOs, node.ID(), visit); found {
			if !e.opts.StrictReplay {
				native, err := decodeRecordedResponse(recorded)
				if err != nil {
					return NodeResult{Err: NewError(KindNodeExecutionError, "failed to decode recorded response").WithNode(node.ID()).WithCause(err)}
				}
				wctx.SetNodeState(node.ID(), StateCompleted)
				return NodeResult{Output: native}
			}
			start := time.Now()
			result := e.executeWithRetry(ctx, node, spec, wctx)
			if result.Err == nil {
				if verr := verifyReplayHash(recorded, result.Output.Native()); verr != nil {
					result.Err = NewError(KindNodeExecutionError, "replay verification failed").WithNode(node.ID()).WithCause(verr)
				}
			}
			e.recordStepLatency(wctx, node.ID(), start, result.Err)
			return result
		}
	}

	start := time.Now()
	result := e.executeWithRetry(ctx, node, spec, wctx)

	if recordable && !e.opts.ReplayMode && result.Err == nil {
		if rec, err := recordIO(node.ID(), visit, wctx.OutputData.Native(), result.Output.Native()); err == nil {
			es.mu.Lock()
			es.recordedIOs = append(es.recordedIOs, rec)
			es.mu.Unlock()
		}
	}

	e.recordStepLatency(wctx, node.ID(), start, result.Err)
	return result
}

// executeWithRetry runs node to completion per its timeout/retry policy,
// without any replay bookkeeping.
func (e *Engine) executeWithRetry(ctx context.Context, node Node, spec *NodeSpec, wctx *WorkflowContext) NodeResult {
	policy := policyFromSpec(spec)

	attempt := 0
	var result NodeResult
	for {
		var terr error
		result, terr = executeNodeWithTimeout(ctx, node, node.ID(), wctx, policy, e.opts.DefaultNodeTimeout)
		if terr != nil && result.Err == nil {
			result.Err = terr
		}

		if result.Err == nil || policy.RetryPolicy == nil {
			break
		}
		if attempt+1 >= policy.RetryPolicy.MaxAttempts {
			break
		}
		if policy.RetryPolicy.Retryable != nil && !policy.RetryPolicy.Retryable(result.Err) {
			break
		}
		if e.opts.Metrics != nil {
			e.opts.Metrics.IncrementRetries(wctx.ExecutionID, node.ID(), "node_error")
		}
		delay := computeBackoff(attempt, policy.RetryPolicy.BaseDelay, policy.RetryPolicy.MaxDelay, nil)
		select {
		case <-ctx.Done():
			result.Err = ctx.Err()
			return result
		case <-time.After(delay):
		}
		attempt++
	}
	return result
}

// reportQueueMetrics publishes the frontier's current depth and
// cumulative backpressure-event count to PrometheusMetrics, if
// configured. prevBackpressure tracks the last reported count so
// IncrementBackpressure (a counter) is only called for newly observed
// events rather than re-summing the snapshot on every step.
func (e *Engine) reportQueueMetrics(runID string, frontier *Frontier[frontierItem], prevBackpressure *int32) {
	if e.opts.Metrics == nil {
		return
	}
	snap := frontier.Metrics()
	e.opts.Metrics.UpdateQueueDepth(int(snap.QueueDepth))
	for snap.BackpressureEvents > *prevBackpressure {
		e.opts.Metrics.IncrementBackpressure(runID, "queue_full")
		*prevBackpressure++
	}
}

func (e *Engine) recordStepLatency(wctx *WorkflowContext, nodeID string, start time.Time, nodeErr error) {
	if e.opts.Metrics == nil {
		return
	}
	status := "success"
	if nodeErr != nil {
		status = "error"
	}
	e.opts.Metrics.RecordStepLatency(wctx.ExecutionID, nodeID, time.Since(start), status)
}

// decodeRecordedResponse unmarshals a RecordedIO's captured response back
// into a Value for direct reuse during non-strict replay.
func decodeRecordedResponse(recorded RecordedIO) (Value, error) {
	var native interface{}
	if err := json.Unmarshal(recorded.Response, &native); err != nil {
		return Null(), err
	}
	return FromNative(native), nil
}

// nextAttempt returns the next per-node visit counter, used as the
// "attempt" half of a RecordedIO's (nodeID, attempt) key. A node visited
// more than once in the same execution (e.g. a Loop body) gets a distinct
// slot per visit, not just per retry.
func (es *executionState) nextAttempt(nodeID string) int {
	es.mu.Lock()
	defer es.mu.Unlock()
	if es.attempts == nil {
		es.attempts = make(map[string]int)
	}
	n := es.attempts[nodeID]
	es.attempts[nodeID] = n + 1
	return n
}

func policyFromSpec(spec *NodeSpec) *NodePolicy {
	if spec == nil {
		return &NodePolicy{}
	}
	p := &NodePolicy{}
	if spec.Config.TimeoutS > 0 {
		p.Timeout = time.Duration(spec.Config.TimeoutS * float64(time.Second))
	}
	if spec.Config.MaxRetries > 0 {
		base := time.Duration(spec.Config.RetryDelayS * float64(time.Second))
		if base <= 0 {
			base = time.Second
		}
		p.RetryPolicy = &RetryPolicy{
			MaxAttempts: spec.Config.MaxRetries + 1,
			BaseDelay:   base,
			MaxDelay:    base * 10,
			Retryable:   func(error) bool { return true },
		}
	}
	return p
}

func findNodeSpec(spec *WorkflowSpec, id string) *NodeSpec {
	for i := range spec.Nodes {
		if spec.Nodes[i].ID == id {
			return &spec.Nodes[i]
		}
	}
	return nil
}

// route determines the node ids to enqueue next, honoring an explicit
// Next override from the node's own result, falling back to edge
// evaluation under the workflow's RoutingStrategy otherwise.
func (e *Engine) route(wf *Workflow, fromNodeID string, wctx *WorkflowContext, result NodeResult) (nexts []string, terminal bool, err error) {
	if !result.Route.IsZero() {
		if result.Route.Terminal {
			return nil, true, nil
		}
		if result.Route.To != "" {
			return []string{result.Route.To}, false, nil
		}
		return result.Route.Many, false, nil
	}

	edges := wf.edgesBySource[fromNodeID]
	if len(edges) == 0 {
		return nil, true, nil
	}

	var nodeErr error
	if result.Err != nil {
		nodeErr = result.Err
	}

	// edges is sorted by priority descending, with every EdgeFallback
	// forced below every other edge on the node (see edgePriority), so
	// walking in order and breaking on the first match implements
	// FIRST_MATCH directly: the highest-priority passing edge wins, ties
	// broken by declaration order. ALL_MATCHES collects every passing
	// edge but still only admits a fallback if no higher-priority edge
	// matched at all, since the fallback is the last-resort edge, not an
	// equal participant in the match set.
	var matched []*EdgeSpec
	nonFallbackMatched := false
	for _, edge := range edges {
		if edge.EdgeType == EdgeFallback && nonFallbackMatched {
			continue
		}
		if !edge.CanTraverse(wctx, nodeErr) {
			continue
		}
		matched = append(matched, edge)
		if edge.EdgeType != EdgeFallback {
			nonFallbackMatched = true
		}
		if wf.Spec.RoutingStrategy != AllMatches {
			break
		}
	}

	if nodeErr != nil && len(matched) == 0 {
		return nil, false, NewError(KindRoutingError, "node failed and no error/fallback edge matched").WithNode(fromNodeID).WithCause(nodeErr)
	}
	if len(matched) == 0 {
		return nil, true, nil
	}
	for _, edge := range matched {
		nexts = append(nexts, edge.TargetNodeID)
	}
	return nexts, false, nil
}

func nextDataMapping(wf *Workflow, fromNodeID, toNodeID string) map[string]string {
	for _, edge := range wf.edgesBySource[fromNodeID] {
		if edge.TargetNodeID == toNodeID && len(edge.DataMapping) > 0 {
			return edge.DataMapping
		}
	}
	return nil
}

func asWorkflowError(err error, nodeID string) *WorkflowError {
	if we, ok := err.(*WorkflowError); ok {
		return we
	}
	return NewError(KindNodeExecutionError, err.Error()).WithNode(nodeID).WithCause(err)
}

// isHITLSuspend reports whether result represents a HumanInput node
// pausing for user input; graph/node.HumanInput signals this via a
// reserved Route.To value of "__suspend__" and records the pending
// prompt id in its Output object's "suspendId" field.
func isHITLSuspend(result NodeResult) (string, bool) {
	if result.Route.To != "__suspend__" {
		return "", false
	}
	id, _ := result.Output.Get("suspendId")
	return id.AsString(), true
}

func (e *Engine) suspendForInput(es *executionState, nodeID, suspendID string) {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.status = statusSuspended
	e.emitter.Emit(emit.Event{
		RunID:  es.wctx.ExecutionID,
		NodeID: nodeID,
		Msg:    "suspended_for_input",
		Meta:   map[string]interface{}{"suspendId": suspendID},
	})
}

func (e *Engine) finish(es *executionState, status executionStatus, err error) {
	es.mu.Lock()
	es.status = status
	es.err = err
	es.mu.Unlock()
}

func (e *Engine) emitStep(wctx *WorkflowContext, nodeID string, result NodeResult) {
	meta := map[string]interface{}{}
	if result.Err != nil {
		meta["error"] = result.Err.Error()
	}
	e.emitter.Emit(emit.Event{
		RunID:  wctx.ExecutionID,
		NodeID: nodeID,
		Msg:    "node_complete",
		Meta:   meta,
	})
}

// Pause requests that execution stop advancing after its current step.
// Pause marks the executionState; the main loop checks the status before
// each step and returns once it sees the pause, leaving the frontier in
// place for Resume.
func (e *Engine) Pause(executionID string) error {
	e.mu.Lock()
	es, ok := e.executions[executionID]
	e.mu.Unlock()
	if !ok {
		return ErrExecutionNotFound
	}
	es.mu.Lock()
	es.status = statusPaused
	es.mu.Unlock()
	return nil
}

// Resume continues a paused or HITL-suspended execution. For HITL
// resumption, answer is written into the context under "__hitl_answer__"
// before the frontier is re-driven from wherever it left off.
func (e *Engine) Resume(ctx context.Context, executionID string, answer Value) (*WorkflowContext, error) {
	e.mu.Lock()
	es, ok := e.executions[executionID]
	e.mu.Unlock()
	if !ok {
		return nil, ErrExecutionNotFound
	}
	es.mu.Lock()
	status := es.status
	es.mu.Unlock()
	if status != statusPaused && status != statusSuspended {
		return nil, ErrExecutionNotPaused
	}
	if !answer.IsNull() {
		es.wctx.Set("__hitl_answer__", answer)
	}
	es.mu.Lock()
	es.status = statusRunning
	wf, wctx, frontier := es.wf, es.wctx, es.frontier
	es.mu.Unlock()

	return e.drain(ctx, wf, wctx, frontier, es)
}

// drain continues the main loop of run() against an already-initialized
// frontier/context pair, used by Resume.
func (e *Engine) drain(ctx context.Context, wf *Workflow, wctx *WorkflowContext, frontier *Frontier[frontierItem], es *executionState) (*WorkflowContext, error) {
	var reportedBackpressure int32
	for frontier.Len() > 0 {
		es.mu.Lock()
		if es.status == statusPaused {
			es.mu.Unlock()
			return wctx, nil
		}
		if es.status == statusCancelled {
			cancelErr := es.err
			es.mu.Unlock()
			return wctx, cancelErr
		}
		es.mu.Unlock()

		if lerr := e.checkWorkflowLimits(wf, es); lerr != nil {
			e.finish(es, statusFailed, lerr)
			return wctx, lerr
		}

		e.reportQueueMetrics(wctx.ExecutionID, frontier, &reportedBackpressure)

		item, err := frontier.Dequeue(ctx)
		if err != nil {
			e.finish(es, statusFailed, err)
			return wctx, err
		}
		node, ok := wf.Nodes[item.State.NodeID]
		if !ok {
			werr := NewError(KindNodeNotFound, "no node registered").WithNode(item.State.NodeID)
			e.finish(es, statusFailed, werr)
			return wctx, werr
		}
		wctx.OutputData = item.State.Input
		nodeSpec := findNodeSpec(wf.Spec, item.State.NodeID)
		if e.opts.Metrics != nil {
			e.opts.Metrics.UpdateInflightNodes(1)
		}
		result := e.runNodeWithPolicy(ctx, node, nodeSpec, wctx, es)
		if e.opts.Metrics != nil {
			e.opts.Metrics.UpdateInflightNodes(0)
		}
		e.emitStep(wctx, item.State.NodeID, result)

		if result.Err != nil {
			wctx.SetNodeState(item.State.NodeID, StateFailed)
			wctx.VisitWithoutOutput(item.State.NodeID)
			wctx.SetError(asWorkflowError(result.Err, item.State.NodeID))
		} else {
			wctx.SetNodeState(item.State.NodeID, StateCompleted)
			wctx.CompleteNode(item.State.NodeID, result.Output)
			wctx.OutputData = result.Output
			wctx.ClearError()
		}

		if suspendID, suspended := isHITLSuspend(result); suspended {
			if err := frontier.Enqueue(ctx, item); err != nil {
				e.finish(es, statusFailed, err)
				return wctx, err
			}
			e.suspendForInput(es, item.State.NodeID, suspendID)
			return wctx, nil
		}
		if nodeSpec != nil && nodeSpec.NodeType == NodeEnd {
			e.finish(es, statusCompleted, nil)
			return wctx, nil
		}

		nexts, terminal, rerr := e.route(wf, item.State.NodeID, wctx, result)
		if rerr != nil {
			e.finish(es, statusFailed, rerr)
			return wctx, rerr
		}
		if terminal {
			e.finish(es, statusCompleted, nil)
			return wctx, nil
		}
		for edgeIndex, next := range nexts {
			nextInput := wctx.OutputData
			if mapped := nextDataMapping(wf, item.State.NodeID, next); mapped != nil {
				nextInput = TransformData(wctx, mapped)
			}
			if err := frontier.Enqueue(ctx, WorkItem[frontierItem]{
				NodeID:       next,
				OrderKey:     ComputeOrderKey(item.State.NodeID, edgeIndex),
				ParentNodeID: item.State.NodeID,
				EdgeIndex:    edgeIndex,
				State:        frontierItem{NodeID: next, Input: nextInput},
			}); err != nil {
				e.finish(es, statusFailed, err)
				return wctx, err
			}
		}
	}
	e.finish(es, statusCompleted, nil)
	return wctx, nil
}

// Cancel stops an execution before its next step (a node already running
// finishes first); its WorkflowContext remains readable for post-mortem
// inspection but no further nodes will run.
func (e *Engine) Cancel(executionID string) error {
	e.mu.Lock()
	es, ok := e.executions[executionID]
	e.mu.Unlock()
	if !ok {
		return ErrExecutionNotFound
	}
	e.finish(es, statusCancelled, fmt.Errorf("execution cancelled"))
	return nil
}

// Status reports the current lifecycle state of executionID.
func (e *Engine) Status(executionID string) (string, error) {
	e.mu.Lock()
	es, ok := e.executions[executionID]
	e.mu.Unlock()
	if !ok {
		return "", ErrExecutionNotFound
	}
	es.mu.Lock()
	defer es.mu.Unlock()
	return string(es.status), nil
}

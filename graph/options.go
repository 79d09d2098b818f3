// Package graph provides the core graph execution engine for LangGraph-Go.
package graph

import "time"

// Option is a functional option for configuring an Engine.
//
// Functional options provide a clean, extensible API for engine configuration:
// - Chainable: engine, err := New(emitter, WithMaxConcurrent(8), WithQueueDepth(1024)).
// - Self-documenting: Option names clearly describe their purpose.
// - Optional: Only specify the configuration you need.
//
// New takes the emitter followed by Option values only; an Options struct
// cannot be passed to it.
//
// Example:
//
//	engine, err := graph.New(
//	    emitter,
//	    graph.WithMaxConcurrent(16),
//	    graph.WithQueueDepth(2048),
//	    graph.WithDefaultNodeTimeout(10*time.Second),
//	)
type Option func(*engineConfig) error

// engineConfig is an internal struct used to collect options before applying them to an Engine.
// This indirection allows validation and composition of options.
type engineConfig struct {
	opts Options
}

// WithMaxSteps limits workflow execution to prevent infinite loops.
//
// Default: 0, which the engine treats as a ceiling of 10000 steps.
//
// Workflow loops (A → B → A) are fully supported. Use MaxSteps to prevent
// infinite loops when a conditional exit is missing or misconfigured.
//
// Loop patterns:
//  1. Node-based conditional loop: nodeA returns Goto("B") if shouldContinue(state), else Stop()
//  2. Edge predicate loop: a conditional edge A → B for the loop case and a conditional edge A → exit for the exit case
//
// Recommended values:
//   - Simple workflows (3-5 nodes): MaxSteps = 20
//   - Workflows with loops: MaxSteps = depth × max_iterations (e.g., 5 nodes × 10 iterations = 50)
//   - Complex multi-loop workflows: MaxSteps = 100-200
//
// When MaxSteps is exceeded, Execute returns a *WorkflowError of kind
// KindMaxIterationsExceeded.
//
// Example:
//
//	engine, err := graph.New(
//	    emitter,
//	    graph.WithMaxSteps(100), // Limit to 100 execution steps
//	)
func WithMaxSteps(n int) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.MaxSteps = n
		return nil
	}
}

// WithMaxConcurrent sets Options.MaxConcurrentNodes.
//
// Default: 0. The engine runs one node at a time and does not read this
// value, so setting it does not change how many nodes run at once.
//
// Example:
//
//	engine, err := graph.New(
//	    emitter,
//	    graph.WithMaxConcurrent(16),
//	)
func WithMaxConcurrent(n int) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.MaxConcurrentNodes = n
		return nil
	}
}

// WithQueueDepth sets the capacity of the execution frontier queue.
//
// Default: 1024. Increase for workflows with large fan-outs.
//
// When the queue fills, new work items block until space is available.
// This provides backpressure to prevent unbounded memory growth.
//
// Recommended: MaxConcurrentNodes × 100 for initial estimate.
//
// Example:
//
//	engine, err := graph.New(
//	    emitter,
//	    graph.WithQueueDepth(2048), // Queue can hold 2048 work items.
//	)
func WithQueueDepth(n int) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.QueueDepth = n
		return nil
	}
}

// WithBackpressureTimeout sets Options.BackpressureTimeout.
//
// Default: 30s. The engine stores this value but does not read it: when
// the frontier queue is full, Enqueue blocks until space frees up or the
// run's context ends, and ErrBackpressureTimeout is never returned.
//
// Example:
//
//	engine, err := graph.New(
//	    emitter,
//	    graph.WithBackpressureTimeout(60*time.Second),
//	)
func WithBackpressureTimeout(d time.Duration) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.BackpressureTimeout = d
		return nil
	}
}

// WithDefaultNodeTimeout sets the maximum execution time for nodes whose NodeSpec.Config.TimeoutS is unset.
//
// Default: 30s. Individual nodes can override via NodeSpec.Config.TimeoutS.
//
// Prevents single slow nodes from blocking workflow progress indefinitely.
// When exceeded, node execution is cancelled and returns context.DeadlineExceeded.
//
// Example:
//
//	engine, err := graph.New(
//	    emitter,
//	    graph.WithDefaultNodeTimeout(10*time.Second), // All nodes timeout after 10s by default.
//	)
func WithDefaultNodeTimeout(d time.Duration) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.DefaultNodeTimeout = d
		return nil
	}
}

// WithRunWallClockBudget sets the maximum total execution time for Execute.
//
// Default: 0 (no budget). If exceeded, Execute returns context.DeadlineExceeded.
//
// Use this to enforce hard deadlines on entire workflow execution.
// Set to 0 to disable (workflow runs until completion or MaxSteps).
//
// Example:
//
//	engine, err := graph.New(
//	    emitter,
//	    graph.WithRunWallClockBudget(5*time.Minute), // Entire workflow must complete in 5 minutes.
//	)
func WithRunWallClockBudget(d time.Duration) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.RunWallClockBudget = d
		return nil
	}
}

// WithReplayMode enables deterministic replay using recorded I/O.
//
// Default: false (record mode - captures I/O for later replay).
//
// When true, nodes with NodeConfig.Recordable=true will use recorded.
// responses instead of executing live I/O. This enables:
// - Debugging: Replay production executions locally.
// - Testing: Verify workflow logic without external dependencies.
// - Auditing: Reconstruct exact execution flow from checkpoints.
//
// Requires prior execution with ReplayMode=false to record I/O.
//
// Example:
//
// // Original execution (record mode).
// recordEngine, _ := graph.New(emitter).
// _, _ = recordEngine.Execute(ctx, wf, "run-001", input).
// recs := recordEngine.RecordedIOs("run-001").
//
// // Later: replay execution.
// replayEngine, _ := graph.New(emitter, graph.WithReplayMode(true), graph.WithRecordedIOs(recs)).
// replayedCtx, _ := replayEngine.Execute(ctx, wf, "run-002", input).
func WithReplayMode(enabled bool) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.ReplayMode = enabled
		return nil
	}
}

// WithStrictReplay controls replay mismatch behavior.
//
// Default: false.
//
// When true, replay mode still runs each recorded node live and checks the
// hash of its output against the recording. A mismatch (indicating logic
// changes) fails the node with a "replay verification failed" error built
// from ErrReplayMismatch, and Execute returns an error.
//
// When false, the recorded output is reused and the node is not run.
//
// Example:
//
//	engine, err := graph.New(
//	    emitter,
//	    graph.WithReplayMode(true),
//	    graph.WithStrictReplay(true), // Run nodes live and verify against the recording.
//	    graph.WithRecordedIOs(recs),
//	)
func WithStrictReplay(enabled bool) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.StrictReplay = enabled
		return nil
	}
}

// WithRecordedIOs seeds a replay engine with the I/O recorded by a prior
// non-replay run, so WithReplayMode(true) has something to look up.
func WithRecordedIOs(ios []RecordedIO) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.RecordedIOs = ios
		return nil
	}
}

// ConflictPolicy names how concurrent updates to the same state fields
// would be handled.
//
// Only ConflictFail is accepted by WithConflictPolicy. The engine runs
// nodes one at a time and performs no conflict detection, so no policy
// changes execution.
//
// Policies:
// - ConflictFail: the default and the only accepted value.
// - LastWriterWins: rejected by WithConflictPolicy.
// - CRDT: rejected by WithConflictPolicy.
type ConflictPolicy int

const (
	// ConflictFail is the default and the only policy WithConflictPolicy
	// accepts; no conflict check is made under it.
	ConflictFail ConflictPolicy = iota

	// LastWriterWins uses the delta with the highest OrderKey when conflicts occur.
	// WARNING: Not yet implemented. Will return error if specified.
	LastWriterWins

	// ConflictCRDT uses CRDT semantics for automatic conflict resolution.
	// WARNING: Not yet implemented. Will return error if specified.
	ConflictCRDT
)

// WithConflictPolicy sets the policy for handling concurrent state update conflicts.
//
// Default: ConflictFail.
//
// Only ConflictFail is accepted; any other policy makes New return an
// *EngineError with code "UNSUPPORTED_CONFLICT_POLICY". The policy is not
// stored, and no conflict detection is done.
//
// Example:
//
//	engine, err := graph.New(
//	    emitter,
//	    graph.WithConflictPolicy(graph.ConflictFail),
//	)
func WithConflictPolicy(policy ConflictPolicy) Option {
	return func(cfg *engineConfig) error {
		// Currently only ConflictFail is supported.
		// Future: Implement LastWriterWins and ConflictCRDT.
		if policy != ConflictFail {
			return &EngineError{
				Message: "only ConflictFail policy is currently supported",
				Code:    "UNSUPPORTED_CONFLICT_POLICY",
			}
		}
		// Note: Options struct doesn't have ConflictPolicy field yet.
		// This is reserved for future use when field is added.
		return nil
	}
}

// WithMetrics enables Prometheus metrics collection.
//
// Metrics enable production monitoring with 6 key metrics:
//   - inflight_nodes: Current concurrent node count
//   - queue_depth: Pending nodes in scheduler queue
//   - step_latency_ms: Node execution duration histogram
//   - retries_total: Cumulative retry attempts
//   - merge_conflicts_total: Concurrent state merge conflicts
//   - backpressure_events_total: Queue saturation events
//
// The engine updates all of these during workflow execution except
// merge_conflicts_total, which it never increments.
//
// Example:
//
//	registry := prometheus.NewRegistry()
//	metrics := graph.NewPrometheusMetrics(registry)
//	engine, err := graph.New(
//	    emitter,
//	    graph.WithMetrics(metrics),
//	)
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
func WithMetrics(metrics *PrometheusMetrics) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.Metrics = metrics
		return nil
	}
}

// WithCostTracker enables LLM cost tracking with static pricing.
//
// Cost tracker monitors:
//   - Per-model token usage (input/output)
//   - Cost calculation using static pricing tables
//   - Cumulative cost tracking across calls
//   - Per-model cost attribution
//
// Static pricing includes OpenAI, Anthropic, and Google models.
//
// The tracker is stored in Options.CostTracker; the engine itself does
// not read it. LLM nodes record usage to the tracker passed to them in
// node.FactoryDeps.Costs.
//
// Example:
//
//	tracker := graph.NewCostTracker("run-123", "USD")
//	engine, err := graph.New(
//	    emitter,
//	    graph.WithCostTracker(tracker),
//	)
//
//	// After execution, get cost summary
//	totalCost := tracker.GetTotalCost()
//	modelCosts := tracker.GetCostByModel()
func WithCostTracker(tracker *CostTracker) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.CostTracker = tracker
		return nil
	}
}

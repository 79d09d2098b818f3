package tool

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/agentgraph/workflow/graph"
	"github.com/agentgraph/workflow/graph/emit"
)

// CallerContext carries the caller identity and role the SecurityConfig
// stage checks, plus the scope key the speech stage uses for SpeechAuto
// session reuse.
type CallerContext struct {
	Role        string
	Authed      bool
	ExecutionID string
}

// Executor runs one tool through the full pipeline: security, policy,
// rate limiting, idempotency lookup, pre-tool speech, circuit-breaker
// gated execution with retry, variable assignment, and event emission.
// It mirrors the teacher's layering of cross-cutting concerns around a
// single Tool.Call, generalized from one fixed HTTPTool to any backend.
type Executor struct {
	spec    *ToolSpec
	tool    Tool
	breaker *CircuitBreaker
	limiter *Limiter
	idemp   IdempotencyCache
	emitter emit.Emitter
}

func NewExecutor(spec *ToolSpec, backend Tool, idemp IdempotencyCache, emitter emit.Emitter) *Executor {
	if idemp == nil {
		idemp = NewMemoryIdempotencyCache()
	}
	return &Executor{
		spec:    spec,
		tool:    backend,
		breaker: NewCircuitBreaker(spec.Breaker),
		limiter: NewLimiter(spec.RateLimit),
		idemp:   idemp,
		emitter: emitter,
	}
}

// Execute runs the tool call against wctx's WorkflowContext. speechOut
// receives the selected pre-tool filler line, if any, so the caller (an
// LLM/Agent/Tool node) can surface it to a voice channel before the
// (possibly slow) call completes.
func (e *Executor) Execute(ctx context.Context, wctx *graph.WorkflowContext, caller CallerContext, input map[string]interface{}, speechOut func(string)) (map[string]interface{}, error) {
	if err := e.checkSecurity(caller); err != nil {
		return nil, err
	}
	if err := e.checkPolicy(wctx); err != nil {
		return nil, err
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("tool %q: rate limit wait: %w", e.spec.Name(), err)
	}

	var idemKey string
	if e.spec.Idempotency.Enabled {
		key, err := ComputeIdempotencyKey(e.spec.Name(), input, e.spec.Idempotency.KeyFields)
		if err == nil {
			idemKey = key
			if cached, found, _ := e.idemp.Get(ctx, idemKey); found {
				e.emit(wctx, "tool_idempotent_hit", input, cached, nil)
				return cached, nil
			}
		}
	}

	if speechOut != nil && e.spec.Speech.Enabled {
		line := SelectSpeech(e.spec.Speech, caller.ExecutionID, func() string {
			if len(e.spec.Speech.Phrases) > 0 {
				return e.spec.Speech.Phrases[0]
			}
			return ""
		})
		if line != "" {
			speechOut(line)
		}
	}

	result, err := e.executeWithRetry(ctx, input)
	e.emit(wctx, "tool_call", input, result, err)
	if err != nil {
		return nil, err
	}

	if idemKey != "" {
		_ = e.idemp.Put(ctx, idemKey, result, e.spec.Idempotency.TTL)
	}

	if assignErr := ApplyAssignments(wctx, result, e.spec.Assignments); assignErr != nil {
		return result, assignErr
	}
	var awaited []VariableAssignment
	for _, a := range e.spec.Assignments {
		if a.Mode == AssignAwait {
			awaited = append(awaited, a)
		}
	}
	ApplyAsyncAssignments(wctx, result, awaited)
	go ApplyAsyncAssignments(wctx, result, filterAsync(e.spec.Assignments))

	return result, nil
}

func filterAsync(assignments []VariableAssignment) []VariableAssignment {
	var out []VariableAssignment
	for _, a := range assignments {
		if a.Mode == AssignAsync {
			out = append(out, a)
		}
	}
	return out
}

func (e *Executor) checkSecurity(caller CallerContext) error {
	sec := e.spec.Security
	if sec.RequireAuth && !caller.Authed {
		return fmt.Errorf("tool %q: caller not authenticated", e.spec.Name())
	}
	if len(sec.AllowedRoles) == 0 {
		return nil
	}
	for _, r := range sec.AllowedRoles {
		if r == caller.Role {
			return nil
		}
	}
	return fmt.Errorf("tool %q: role %q not permitted", e.spec.Name(), caller.Role)
}

func (e *Executor) checkPolicy(wctx *graph.WorkflowContext) error {
	pol := e.spec.Policy
	if !pol.Enabled {
		return nil
	}
	if pol.MaxCallsPerRun <= 0 {
		return nil
	}
	counterKey := "_tool_calls_" + e.spec.Name()
	current, _ := wctx.Get(counterKey)
	count := int(current.AsNumber())
	if count >= pol.MaxCallsPerRun {
		reason := pol.DeniedReason
		if reason == "" {
			reason = "call budget exceeded"
		}
		return fmt.Errorf("tool %q: %s", e.spec.Name(), reason)
	}
	wctx.Set(counterKey, graph.Number(float64(count+1)))
	return nil
}

// executeWithRetry drives up to maxAttempts calls to the underlying tool,
// backing off between transient failures, and consults the circuit
// breaker exactly once per overall call (not once per retry attempt): a
// single flaky call that burns through every retry still only counts as
// one failure against the breaker's FailureThreshold, matching a
// breaker guarding a downstream dependency's health across calls rather
// than across attempts within one call.
func (e *Executor) executeWithRetry(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	maxAttempts := e.spec.Retry.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	base := e.spec.Retry.BaseDelay
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	maxDelay := e.spec.Retry.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}

	if !e.breaker.Allow() {
		return nil, fmt.Errorf("tool %q: circuit breaker open", e.spec.Name())
	}

	var lastErr error
	attemptsMade := 0
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := e.tool.Call(ctx, input)
		attemptsMade++
		if err == nil {
			e.breaker.RecordSuccess()
			return result, nil
		}
		lastErr = err

		if attempt == maxAttempts-1 || !isTransientError(err, result, e.spec.Retry.RetryableKinds) {
			break
		}
		delay := backoffDelay(attempt, base, maxDelay)
		select {
		case <-ctx.Done():
			e.breaker.RecordFailure()
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	e.breaker.RecordFailure()
	return nil, fmt.Errorf("tool %q: %d of %d attempts failed: %w", e.spec.Name(), attemptsMade, maxAttempts, lastErr)
}

// retryableHTTPStatus is the default set of HTTP response codes treated
// as transient, per the executor's retry-on-status policy.
var retryableHTTPStatus = map[int]bool{429: true, 500: true, 502: true, 503: true, 504: true}

// isTransientError reports whether err (with its accompanying result, if
// any) represents a condition worth retrying: a network-level failure, an
// HTTP response whose status_code is in retryableHTTPStatus, or an error
// whose kind/type name appears in kinds.
func isTransientError(err error, result map[string]interface{}, kinds []string) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if result != nil {
		if code, ok := statusCodeOf(result); ok && retryableHTTPStatus[code] {
			return true
		}
	}
	if len(kinds) == 0 {
		return false
	}
	kind, hasKind := graph.KindOf(err)
	typeName := fmt.Sprintf("%T", err)
	for _, k := range kinds {
		if hasKind && string(kind) == k {
			return true
		}
		if typeName == k {
			return true
		}
	}
	return false
}

// statusCodeOf extracts an HTTP-style status_code from a tool result,
// tolerating both int (Go callers) and float64 (JSON round-tripped)
// representations.
func statusCodeOf(result map[string]interface{}) (int, bool) {
	switch v := result["status_code"].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// backoffDelay computes exponential backoff with jitter, independent of
// the engine's own policy.computeBackoff since that helper is unexported
// outside the graph package.
func backoffDelay(attempt int, base, maxDelay time.Duration) time.Duration {
	d := base * time.Duration(1<<uint(attempt))
	if d > maxDelay {
		d = maxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(d)/4 + 1)) // #nosec G404 -- backoff jitter, not security-sensitive
	return d + jitter
}

func (e *Executor) emit(wctx *graph.WorkflowContext, msg string, input, output map[string]interface{}, err error) {
	if e.emitter == nil {
		return
	}
	meta := map[string]interface{}{
		"tool":   e.spec.Name(),
		"input":  input,
		"output": output,
	}
	if err != nil {
		meta["error"] = err.Error()
	}
	e.emitter.Emit(emit.Event{
		RunID:  wctx.ExecutionID,
		NodeID: wctx.LastVisited(),
		Msg:    msg,
		Meta:   meta,
	})
}

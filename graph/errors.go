package graph

import (
	"errors"
	"fmt"
)

// ErrorKind is a stable, machine-readable identifier for a WorkflowError,
// matching a fixed taxonomy so callers can branch on
// the string without type-asserting across package boundaries (e.g. a
// tool runtime error reaching an engine-level error edge).
type ErrorKind string

const (
	KindWorkflowNotFound       ErrorKind = "workflow_not_found"
	KindWorkflowBuildError     ErrorKind = "workflow_build_error"
	KindWorkflowValidation     ErrorKind = "workflow_validation_error"
	KindWorkflowExecution      ErrorKind = "workflow_execution_error"
	KindWorkflowState          ErrorKind = "workflow_state_error"
	KindNodeNotFound           ErrorKind = "node_not_found"
	KindNodeExecutionError     ErrorKind = "node_execution_error"
	KindNodeValidationError    ErrorKind = "node_validation_error"
	KindEdgeNotFound           ErrorKind = "edge_not_found"
	KindEdgeValidationError    ErrorKind = "edge_validation_error"
	KindRoutingError           ErrorKind = "routing_error"
	KindConditionEvalError     ErrorKind = "condition_evaluation_error"
	KindTransformError         ErrorKind = "transform_error"
	KindWorkflowTimeout        ErrorKind = "workflow_timeout"
	KindMaxIterationsExceeded  ErrorKind = "max_iterations_exceeded"
	KindCycleDetected          ErrorKind = "cycle_detected"
	KindParallelExecutionError ErrorKind = "parallel_execution_error"
	KindWebhookError           ErrorKind = "webhook_error"
	KindSubworkflowError       ErrorKind = "subworkflow_error"

	KindToolValidationError ErrorKind = "tool_validation_error"
	KindToolSecurityError   ErrorKind = "tool_security_error"
	KindToolPolicyError     ErrorKind = "tool_policy_error"
	KindToolLimitExceeded   ErrorKind = "tool_limit_exceeded"
	KindToolExecutionError  ErrorKind = "tool_execution_error"
	KindToolTimeout         ErrorKind = "tool_timeout"
	KindCircuitOpen         ErrorKind = "circuit_open"
	KindIdempotencyConflict ErrorKind = "idempotency_conflict"

	KindRegistryNotFound         ErrorKind = "not_found"
	KindRegistryVersionExists    ErrorKind = "version_exists"
	KindRegistryImmutableVersion ErrorKind = "immutable_version"
	KindRegistryBackendUnavail   ErrorKind = "backend_unavailable"
)

// WorkflowError is the single error type used throughout graph, graph/
// node, graph/tool, and graph/registry. Every error kind
// carries {kind, message, details}; this type is that carrier so the
// whole module shares one wrapping/unwrapping story.
type WorkflowError struct {
	Kind    ErrorKind
	Message string
	NodeID  string
	Details map[string]interface{}
	Cause   error
}

func (e *WorkflowError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("%s: node %s: %s", e.Kind, e.NodeID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *WorkflowError) Unwrap() error { return e.Cause }

// Is lets errors.Is match on Kind alone, so callers can write
// errors.Is(err, &WorkflowError{Kind: graph.KindCircuitOpen}).
func (e *WorkflowError) Is(target error) bool {
	var t *WorkflowError
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// NewError constructs a WorkflowError of the given kind.
func NewError(kind ErrorKind, message string) *WorkflowError {
	return &WorkflowError{Kind: kind, Message: message}
}

// WithNode attaches a node id, returning e for chaining.
func (e *WorkflowError) WithNode(nodeID string) *WorkflowError {
	e.NodeID = nodeID
	return e
}

// WithCause attaches an underlying cause, returning e for chaining.
func (e *WorkflowError) WithCause(cause error) *WorkflowError {
	e.Cause = cause
	return e
}

// WithDetail attaches one structured detail, returning e for chaining.
func (e *WorkflowError) WithDetail(key string, value interface{}) *WorkflowError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// KindOf extracts the ErrorKind from err if it is (or wraps) a
// *WorkflowError. Error-edge filtering (matchesErrorTypes in edge.go)
// compares this kind, and separately the error's Go type name.
func KindOf(err error) (ErrorKind, bool) {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we.Kind, true
	}
	return "", false
}

// Engine-internal sentinel errors, kept from the teacher
// (dshills-langgraph-go graph/errors.go) and folded into one taxonomy via
// the WorkflowError wrappers above. ErrReplayMismatch, ErrNoProgress,
// ErrBackpressureTimeout, ErrIdempotencyViolation and
// ErrMaxAttemptsExceeded live in checkpoint.go alongside the Checkpoint
// type they guard.
var (
	// ErrMaxStepsExceeded indicates execution reached Options.MaxSteps
	// without completing.
	ErrMaxStepsExceeded = errors.New("execution exceeded maximum iterations")

	// ErrBackpressure indicates the frontier queue could not be drained
	// fast enough (Parallel node fan-out).
	ErrBackpressure = errors.New("downstream backpressure exceeded threshold")

	// ErrInvalidRetryPolicy indicates a RetryPolicy failed Validate().
	ErrInvalidRetryPolicy = errors.New("invalid retry policy")

	// ErrExecutionNotFound indicates pause/resume/cancel referenced an
	// unknown executionId.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrExecutionNotPaused indicates resume was called on an execution
	// that was never paused or suspended for HITL input.
	ErrExecutionNotPaused = errors.New("execution is not paused")
)

// EngineError reports a structural problem with an Engine call itself
// (bad configuration) rather than a
// workflow-execution-time failure, which uses WorkflowError instead.
type EngineError struct {
	Message string
	Code    string
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

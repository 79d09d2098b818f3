package tool

import "time"

// Kind identifies which concrete backend a ToolSpec resolves to.
type Kind string

const (
	KindFunction Kind = "function"
	KindHTTP     Kind = "http"
	KindDB       Kind = "db"
)

// DbDriver names one of the four database backends a DbToolSpec can bind
// to, each wired to a distinct third-party driver.
type DbDriver string

const (
	DbPostgres DbDriver = "postgres"
	DbMySQL    DbDriver = "mysql"
	DbSQLite   DbDriver = "sqlite"
	DbDynamoDB DbDriver = "dynamodb"
)

// RetryConfig controls the Executor's retry-with-backoff stage.
//
// Only transient failures are retried: network errors, HTTP responses
// with status 429, 500, 502, 503 or 504 (read from the call result's "status_code"
// field), and whatever additional kinds RetryableKinds names. Anything
// else fails the call on the first attempt.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// RetryableKinds names additional error kinds to treat as transient,
	// matched against graph.KindOf(err) or err's dynamic Go type name the
	// same way EdgeSpec.ErrorTypes matches a raised error.
	RetryableKinds []string
}

// CircuitBreakerConfig tunes the breaker guarding one tool.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	ResetTimeout     time.Duration
	HalfOpenMaxCalls int
}

// IdempotencyConfig controls request deduplication.
type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration
	// KeyFields names the input fields hashed to build the idempotency
	// key; empty means the whole input is hashed.
	KeyFields []string
}

// RateLimitConfig bounds call rate per tool.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// SpeechMode selects how a pre-tool speech line is produced.
type SpeechMode string

const (
	SpeechConstant SpeechMode = "constant"
	SpeechRandom   SpeechMode = "random"
	SpeechAuto     SpeechMode = "auto"
)

// PreToolSpeechConfig configures the short verbal filler spoken before a
// slow tool call in a voice agent (e.g. "Let me check that for you...").
type PreToolSpeechConfig struct {
	Enabled bool
	Mode    SpeechMode
	Phrases []string // used by Constant (first entry) and Random
	Scope   string   // "session" | "call": whether AUTO mode may reuse a prior generated line
}

// SecurityConfig gates which callers/contexts may invoke a tool.
type SecurityConfig struct {
	AllowedRoles   []string
	RequireAuth    bool
	SanitizeOutput bool
}

// PolicyConfig applies coarse allow/deny and cost controls independent of
// the circuit breaker and rate limiter.
type PolicyConfig struct {
	Enabled       bool
	MaxCallsPerRun int
	DeniedReason  string
}

// VariableAssignment writes part of a tool's result back into the
// WorkflowContext beyond its normal node output, supporting the dynamic
// variable assignment feature (operators below).
type VariableAssignment struct {
	Variable  string          `json:"variable"`
	Operator  AssignOperator  `json:"operator"`
	SourcePath string         `json:"sourcePath"` // path into the tool's result, e.g. "data.total"
	Value      interface{}    `json:"value,omitempty"`
	Mode       AssignMode      `json:"mode"`
	OnError    AssignErrPolicy `json:"onError"`
}

type AssignOperator string

const (
	AssignSet          AssignOperator = "set"
	AssignSetIfExists  AssignOperator = "set_if_exists"
	AssignSetIfTruthy  AssignOperator = "set_if_truthy"
	AssignAppend       AssignOperator = "append"
	AssignIncrement    AssignOperator = "increment"
	AssignTransform    AssignOperator = "transform"
)

type AssignMode string

const (
	AssignSync  AssignMode = "sync"
	AssignAsync AssignMode = "async"
	AssignAwait AssignMode = "await"
)

type AssignErrPolicy string

const (
	AssignErrIgnore AssignErrPolicy = "ignore"
	AssignErrLog    AssignErrPolicy = "log"
	AssignErrRaise  AssignErrPolicy = "raise"
)

// FunctionToolSpec describes a tool backed by a registered in-process Go
// function (the common case: a Tool implementation supplied by the host
// application).
type FunctionToolSpec struct {
	Name        string
	Description string
	Schema      map[string]interface{}
}

// HttpToolSpec describes a tool backed by an outbound HTTP call through
// the shared SessionManager connection pool.
type HttpToolSpec struct {
	Name       string
	Method     string
	URLTemplate string // "{var}" substitution against the tool call input
	Headers    map[string]string
	TimeoutMs  int
}

// DbToolSpec describes a tool backed by a parameterized database query
// against one of the four supported drivers.
type DbToolSpec struct {
	Name      string
	Driver    DbDriver
	DSN       string
	Query     string
	ParamKeys []string // tool-call input fields bound to query placeholders, in order
}

// ToolSpec is the serializable description of one tool, combining the
// kind-specific spec with the cross-cutting execution config every
// Executor stage reads.
type ToolSpec struct {
	Kind        Kind
	Function    *FunctionToolSpec
	HTTP        *HttpToolSpec
	DB          *DbToolSpec
	Retry       RetryConfig
	Breaker     CircuitBreakerConfig
	Idempotency IdempotencyConfig
	RateLimit   RateLimitConfig
	Speech      PreToolSpeechConfig
	Security    SecurityConfig
	Policy      PolicyConfig
	SideEffect  bool // Recordable for replay, mirrors graph.SideEffectPolicy
	Assignments []VariableAssignment
}

// Name returns the tool's identifier regardless of kind.
func (s *ToolSpec) Name() string {
	switch s.Kind {
	case KindFunction:
		if s.Function != nil {
			return s.Function.Name
		}
	case KindHTTP:
		if s.HTTP != nil {
			return s.HTTP.Name
		}
	case KindDB:
		if s.DB != nil {
			return s.DB.Name
		}
	}
	return ""
}

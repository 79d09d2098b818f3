package graph

import (
	"encoding/json"
	"time"
)

// NodeType identifies what kind of computation a NodeSpec describes.
//
// Decision and Switch are both kept as distinct kinds: Decision evaluates
// an ordered condition list and returns a named result that edges match
// against; Switch writes a direct target node id into the context. Both
// patterns are supported rather than one superseding the other.
type NodeType string

const (
	NodeStart       NodeType = "start"
	NodeEnd         NodeType = "end"
	NodeLLM         NodeType = "llm"
	NodeAgent       NodeType = "agent"
	NodeTool        NodeType = "tool"
	NodeSubworkflow NodeType = "subworkflow"
	NodeDecision    NodeType = "decision"
	NodeSwitch      NodeType = "switch"
	NodeParallel    NodeType = "parallel"
	NodeLoop        NodeType = "loop"
	NodeTransform   NodeType = "transform"
	NodeWebhook     NodeType = "webhook"
	NodeHumanInput  NodeType = "human_input"
	NodeDelay       NodeType = "delay"
	NodeCustom      NodeType = "custom"
)

// EdgeType classifies how an edge participates in routing.
type EdgeType string

const (
	EdgeDefault     EdgeType = "default"
	EdgeConditional EdgeType = "conditional"
	EdgeError       EdgeType = "error"
	EdgeTimeout     EdgeType = "timeout"
	EdgeFallback    EdgeType = "fallback"
	EdgeLoopBack    EdgeType = "loop_back"
	EdgeParallelJoin EdgeType = "parallel_join"
	EdgeCustom      EdgeType = "custom"
)

// IOType describes the shape of data flowing through a node's input or
// output port.
type IOType string

const (
	IOText       IOType = "text"
	IOSpeech     IOType = "speech"
	IOJSON       IOType = "json"
	IOImage      IOType = "image"
	IOAudio      IOType = "audio"
	IOVideo      IOType = "video"
	IOBinary     IOType = "binary"
	IOStructured IOType = "structured"
	IOStream     IOType = "stream"
	IOAny        IOType = "any"
)

// ConditionOperator is the predicate operator used inside a ConditionGroup.
type ConditionOperator string

const (
	OpEquals       ConditionOperator = "equals"
	OpNotEquals    ConditionOperator = "not_equals"
	OpGreaterThan  ConditionOperator = "gt"
	OpLessThan     ConditionOperator = "lt"
	OpGreaterEqual ConditionOperator = "ge"
	OpLessEqual    ConditionOperator = "le"
	OpContains     ConditionOperator = "contains"
	OpNotContains  ConditionOperator = "not_contains"
	OpStartsWith   ConditionOperator = "starts_with"
	OpEndsWith     ConditionOperator = "ends_with"
	OpMatchesRegex ConditionOperator = "matches_regex"
	OpInList       ConditionOperator = "in_list"
	OpNotInList    ConditionOperator = "not_in_list"
	OpIsEmpty      ConditionOperator = "is_empty"
	OpIsNotEmpty   ConditionOperator = "is_not_empty"
	OpIsTrue       ConditionOperator = "is_true"
	OpIsFalse      ConditionOperator = "is_false"
	OpCustom       ConditionOperator = "custom"
)

// ConditionJoin combines multiple Conditions within a ConditionGroup.
type ConditionJoin string

const (
	JoinAnd ConditionJoin = "and"
	JoinOr  ConditionJoin = "or"
)

// RoutingStrategy controls how the router selects outgoing edges after a
// node completes.
type RoutingStrategy string

const (
	FirstMatch RoutingStrategy = "first_match"
	AllMatches RoutingStrategy = "all_matches"
)

// WorkflowStatus is the lifecycle stage of a persisted workflow/node/
// edge/tool entity: draft -> pending_review -> approved|rejected ->
// published -> archived.
type WorkflowStatus string

const (
	StatusDraft          WorkflowStatus = "draft"
	StatusPendingReview  WorkflowStatus = "pending_review"
	StatusApproved       WorkflowStatus = "approved"
	StatusRejected       WorkflowStatus = "rejected"
	StatusPublished      WorkflowStatus = "published"
	StatusArchived       WorkflowStatus = "archived"
)

// NodeState is a node's execution state within one WorkflowContext. It
// advances monotonically: idle -> running -> (completed | failed |
// paused); a paused node may transition back to running on resume.
type NodeState string

const (
	StateIdle      NodeState = "idle"
	StateRunning   NodeState = "running"
	StateCompleted NodeState = "completed"
	StateFailed    NodeState = "failed"
	StatePaused    NodeState = "paused"
	StateSkipped   NodeState = "skipped"
)

// Condition is a single predicate over execution context: resolve `Field`
// via the path resolution grammar (ResolvePath), compare it against
// `Value` using `Operator`, optionally negated.
type Condition struct {
	Field    string            `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    Value             `json:"value"`
	Negate   bool              `json:"negate"`
}

// ConditionGroup is an ordered set of Conditions joined by And/Or.
type ConditionGroup struct {
	Conditions []Condition   `json:"conditions"`
	Join       ConditionJoin `json:"join"`
}

// IOSpec describes one input or output port of a node.
type IOSpec struct {
	IOType     IOType                 `json:"ioType"`
	Format     string                 `json:"format,omitempty"`
	JSONSchema map[string]interface{} `json:"jsonSchema,omitempty"`
}

// NodeConfig holds execution tuning shared by every node kind.
type NodeConfig struct {
	TimeoutS     float64 `json:"timeoutS,omitempty"`
	MaxRetries   int     `json:"maxRetries,omitempty"`
	RetryDelayS  float64 `json:"retryDelayS,omitempty"`
	CacheEnabled bool    `json:"cacheEnabled,omitempty"`
	CacheTTLS    float64 `json:"cacheTtlS,omitempty"`

	// Recordable mirrors SideEffectPolicy.Recordable (policy.go) at the
	// wire level: a node with Recordable=true has its step input/output
	// captured for deterministic replay (graph/replay.go) when the
	// engine runs in record mode, and its recorded response reused (or
	// hash-verified under StrictReplay) when run in replay mode.
	Recordable bool `json:"recordable,omitempty"`
}

// UserPromptConfig controls how a node-level user-supplied prompt
// combines with an agent's own prompt.
type UserPromptConfig struct {
	Precedence    string `json:"precedence,omitempty"`    // agent | user | merge | replace
	MergeStrategy string `json:"mergeStrategy,omitempty"` // append | prepend | interleave
	MaxLength     int    `json:"maxLength,omitempty"`
}

// DynamicVariableConfig attaches VariableAssignment rules (see
// graph/tool) to a node so its result can write back into the
// WorkflowContext, beyond the standard Delta/output mechanism.
type DynamicVariableConfig struct {
	Enabled     bool          `json:"enabled,omitempty"`
	Assignments []interface{} `json:"assignments,omitempty"` // []tool.VariableAssignment, kept untyped to avoid an import cycle
}

// NodeSpec is the serializable description of one graph node.
type NodeSpec struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	NodeType NodeType `json:"nodeType"`

	// References/instances resolved at build time by the node factory.
	AgentRef string `json:"agentRef,omitempty"`
	ToolRef  string `json:"toolRef,omitempty"`
	LLMRef   string `json:"llmRef,omitempty"`
	Prompt   string `json:"prompt,omitempty"`

	InputSpec  *IOSpec `json:"inputSpec,omitempty"`
	OutputSpec *IOSpec `json:"outputSpec,omitempty"`

	BackgroundAgents []string               `json:"backgroundAgents,omitempty"`
	UserPrompt       *UserPromptConfig       `json:"userPrompt,omitempty"`
	DynamicVariables *DynamicVariableConfig  `json:"dynamicVariables,omitempty"`
	Display          map[string]interface{}  `json:"display,omitempty"`
	Config           NodeConfig              `json:"config"`

	// Params carries kind-specific configuration (e.g. Loop's
	// maxIterations, Switch's switchField) as a flat Value object so
	// NodeSpec itself stays generic across all ~15 node kinds. Each
	// node implementation in graph/node documents the keys it reads.
	Params map[string]Value `json:"params,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Param fetches a NodeSpec.Params entry, returning Null() if absent.
func (n *NodeSpec) Param(key string) Value {
	if n.Params == nil {
		return Null()
	}
	return n.Params[key]
}

// EdgeSpec is the serializable description of one directed edge.
type EdgeSpec struct {
	ID           string          `json:"id"`
	SourceNodeID string          `json:"sourceNodeId"`
	TargetNodeID string          `json:"targetNodeId"`
	EdgeType     EdgeType        `json:"edgeType"`
	Condition    *ConditionGroup `json:"condition,omitempty"`
	ErrorTypes   []string        `json:"errorTypes,omitempty"`
	Priority     int             `json:"priority"`
	Weight       float64         `json:"weight,omitempty"`
	TimeoutMs    int             `json:"timeoutMs,omitempty"`
	DataMapping  map[string]string `json:"dataMapping,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// WorkflowMetadata carries lifecycle/ownership information alongside a
// WorkflowSpec; it is not part of the graph topology itself.
type WorkflowMetadata struct {
	Status    WorkflowStatus `json:"status"`
	Tags      []string       `json:"tags,omitempty"`
	Owner     string         `json:"owner,omitempty"`
	Env       string         `json:"env,omitempty"`
	CreatedAt time.Time      `json:"createdAt,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt,omitempty"`
}

// WorkflowSpec is the complete, serializable description of a workflow
// graph: the NodeSpec/EdgeSpec collections plus routing and execution
// limits. A *built* graph.Workflow (produced by WorkflowBuilder) wraps a
// validated WorkflowSpec with resolved Node implementations.
type WorkflowSpec struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Version         string           `json:"version"`
	Description     string           `json:"description,omitempty"`
	Nodes           []NodeSpec       `json:"nodes"`
	Edges           []EdgeSpec       `json:"edges"`
	StartNodeID     string           `json:"startNodeId,omitempty"`
	EndNodeIDs      []string         `json:"endNodeIds,omitempty"`
	RoutingStrategy RoutingStrategy  `json:"routingStrategy"`
	MaxIterations   int              `json:"maxIterations,omitempty"`
	TimeoutSeconds  float64          `json:"timeoutSeconds,omitempty"`
	Metadata        WorkflowMetadata `json:"metadata"`
}

// DecodeWorkflowSpec unmarshals raw JSON (as returned by a spec
// registry Get) into a WorkflowSpec.
func DecodeWorkflowSpec(raw []byte) (*WorkflowSpec, error) {
	var spec WorkflowSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

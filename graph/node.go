package graph

import "context"

// Node is a processing unit in the workflow graph. It receives the shared
// WorkflowContext, performs its computation (calling an LLM, invoking a
// tool, evaluating a condition, ...), and returns a NodeResult describing
// its output and, optionally, an explicit routing override.
//
// Unlike the teacher's Node[S any], a Node here always operates on the
// same *WorkflowContext type: node kinds are data (NodeSpec), not Go
// generics, so the engine can build an arbitrary workflow from JSON/the
// spec registry without type parameters leaking into the graph.
type Node interface {
	// ID returns the node's id, matching NodeSpec.ID.
	ID() string

	// Run executes the node. Implementations read their configuration
	// from Spec() (via the NodeSpec passed at construction) and write
	// their result into wctx only through the WorkflowContext API
	// (Set, CompleteNode, ...), never by mutating it directly outside
	// those methods.
	Run(ctx context.Context, wctx *WorkflowContext) NodeResult
}

// NodeResult is the output of one node execution.
type NodeResult struct {
	// Output is the node's produced value, recorded via
	// WorkflowContext.CompleteNode on success.
	Output Value

	// Route, when non-zero, overrides the router's normal edge
	// evaluation for this step. Decision/Switch/Loop nodes use this to
	// name a result or jump directly to a node id; most node kinds
	// leave Route zero and let the router evaluate outgoing EdgeSpecs
	// against wctx instead.
	Route Next

	// Err is non-nil if the node failed. A failed node still records
	// VisitWithoutOutput and sets wctx's current error so error edges
	// can route around the failure.
	Err error
}

// Next is an explicit routing instruction a node can return instead of
// relying on the router's edge evaluation.
type Next struct {
	// To routes directly to a single node id.
	To string

	// Many fans out to multiple node ids (used by nodes that need to
	// start concurrent branches without going through a Parallel node's
	// own edge, e.g. a custom fan-out).
	Many []string

	// Terminal stops execution after this node, independent of any End
	// node reachability.
	Terminal bool
}

// IsZero reports whether n carries no explicit routing instruction, in
// which case the engine's router evaluates outgoing edges normally.
func (n Next) IsZero() bool {
	return n.To == "" && len(n.Many) == 0 && !n.Terminal
}

// Stop returns a Next that ends execution immediately.
func Stop() Next { return Next{Terminal: true} }

// Goto returns a Next that routes directly to nodeID.
func Goto(nodeID string) Next { return Next{To: nodeID} }

// GotoMany returns a Next that fans out to several node ids at once.
func GotoMany(nodeIDs ...string) Next { return Next{Many: nodeIDs} }

// NodeFunc adapts a plain function into a Node, used for the handful of
// built-in kinds (Start, End, Delay) whose behavior needs no extra
// per-instance state beyond the NodeSpec already closed over.
type NodeFunc struct {
	NodeID string
	Fn     func(ctx context.Context, wctx *WorkflowContext) NodeResult
}

func (f NodeFunc) ID() string { return f.NodeID }

func (f NodeFunc) Run(ctx context.Context, wctx *WorkflowContext) NodeResult {
	return f.Fn(ctx, wctx)
}

// NodeError carries node-scoped error detail, kept from the teacher for
// wrapping lower-level failures (tool errors, model errors) before they
// reach WorkflowError.
type NodeError struct {
	Message string
	Code    string
	NodeID  string
	Cause   error
}

func (e *NodeError) Error() string {
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Message
	}
	return e.Message
}

func (e *NodeError) Unwrap() error { return e.Cause }

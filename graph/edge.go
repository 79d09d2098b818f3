package graph

import (
	"fmt"
	"regexp"
	"strings"
)

// CanTraverse reports whether e should be followed after its source node
// finished, given the shared execution context and (if the source node
// failed) the error that was raised.
//
// Traversal rules by EdgeType:
//   - EdgeDefault: traversable only when the source node succeeded
//     (nodeErr is nil).
//   - EdgeConditional: traversable iff e.Condition is non-empty and
//     evaluates true against wctx; a conditional edge with no conditions
//     is never traversable (it is a malformed edge, not an implicit
//     default one).
//   - EdgeError: traversable only when nodeErr is non-nil and its kind (or
//     dynamic type name) appears in e.ErrorTypes, or ErrorTypes is empty
//     (catch-all error edge).
//   - EdgeTimeout: traversable only when nodeErr wraps a timeout kind.
//   - EdgeFallback: always traversable, independent of nodeErr. It is the
//     last-resort edge taken when nothing else matched, whether the node
//     succeeded or failed; route() ranks it below every other edge on the
//     node so it is only ever chosen once all higher-priority edges have
//     failed to match.
//   - EdgeLoopBack, EdgeParallelJoin, EdgeCustom: like EdgeDefault,
//     traversable only when nodeErr is nil; the
//     Loop/Parallel node implementations decide whether to take them via
//     their own Next override rather than generic condition evaluation.
func (e *EdgeSpec) CanTraverse(wctx *WorkflowContext, nodeErr error) bool {
	switch e.EdgeType {
	case EdgeDefault, EdgeLoopBack, EdgeParallelJoin, EdgeCustom:
		return nodeErr == nil
	case EdgeConditional:
		if nodeErr != nil {
			return false
		}
		if e.Condition == nil || len(e.Condition.Conditions) == 0 {
			return false
		}
		return e.Condition.Evaluate(wctx)
	case EdgeError:
		if nodeErr == nil {
			return false
		}
		return matchesErrorTypes(nodeErr, e.ErrorTypes)
	case EdgeTimeout:
		if nodeErr == nil {
			return false
		}
		kind, ok := KindOf(nodeErr)
		return ok && kind == KindWorkflowTimeout || kind == KindToolTimeout
	case EdgeFallback:
		return true
	default:
		return false
	}
}

// matchesErrorTypes implements the error-edge matching rule: an edge's
// ErrorTypes list matches a raised error if it is empty (catch-all), or if
// it names either the error's WorkflowError.Kind string or its dynamic Go
// type name (so both "tool_execution_error" and "*tool.ExecutionError"
// style filters work).
func matchesErrorTypes(err error, types []string) bool {
	if len(types) == 0 {
		return true
	}
	kind, hasKind := KindOf(err)
	typeName := fmt.Sprintf("%T", err)
	for _, t := range types {
		if hasKind && string(kind) == t {
			return true
		}
		if typeName == t {
			return true
		}
	}
	return false
}

// Evaluate runs a ConditionGroup against wctx's path-resolvable values. A
// nil or empty group evaluates true. CanTraverse does not rely on this for
// EdgeConditional: a conditional edge with no conditions is rejected there
// before Evaluate is called.
func (g *ConditionGroup) Evaluate(wctx *WorkflowContext) bool {
	if g == nil || len(g.Conditions) == 0 {
		return true
	}
	if g.Join == JoinOr {
		for _, c := range g.Conditions {
			if c.evaluate(wctx) {
				return true
			}
		}
		return false
	}
	// Default join is AND.
	for _, c := range g.Conditions {
		if !c.evaluate(wctx) {
			return false
		}
	}
	return true
}

func (c *Condition) evaluate(wctx *WorkflowContext) bool {
	result := c.apply(wctx)
	if c.Negate {
		return !result
	}
	return result
}

func (c *Condition) apply(wctx *WorkflowContext) bool {
	actual, _ := ResolvePath(wctx, c.Field)
	switch c.Operator {
	case OpEquals:
		return actual.Equal(c.Value)
	case OpNotEquals:
		return !actual.Equal(c.Value)
	case OpGreaterThan:
		r, ok := actual.Compare(c.Value)
		return ok && r > 0
	case OpLessThan:
		r, ok := actual.Compare(c.Value)
		return ok && r < 0
	case OpGreaterEqual:
		r, ok := actual.Compare(c.Value)
		return ok && r >= 0
	case OpLessEqual:
		r, ok := actual.Compare(c.Value)
		return ok && r <= 0
	case OpContains:
		return valueContains(actual, c.Value)
	case OpNotContains:
		return !valueContains(actual, c.Value)
	case OpStartsWith:
		return strings.HasPrefix(actual.AsString(), c.Value.AsString())
	case OpEndsWith:
		return strings.HasSuffix(actual.AsString(), c.Value.AsString())
	case OpMatchesRegex:
		re, err := regexp.Compile(c.Value.AsString())
		if err != nil {
			return false
		}
		return re.MatchString(actual.AsString())
	case OpInList:
		for _, item := range c.Value.AsList() {
			if actual.Equal(item) {
				return true
			}
		}
		return false
	case OpNotInList:
		for _, item := range c.Value.AsList() {
			if actual.Equal(item) {
				return false
			}
		}
		return true
	case OpIsEmpty:
		return actual.IsEmpty()
	case OpIsNotEmpty:
		return !actual.IsEmpty()
	case OpIsTrue:
		return actual.Truthy()
	case OpIsFalse:
		return !actual.Truthy()
	case OpCustom:
		return evaluateCustomExpr(c.Value.AsString(), wctx)
	default:
		return false
	}
}

// valueContains implements the contains / not_contains operator across
// strings, lists, and objects: substring match for strings, membership
// for lists, key presence for objects.
func valueContains(haystack, needle Value) bool {
	switch haystack.Kind() {
	case KindString:
		return strings.Contains(haystack.AsString(), needle.AsString())
	case KindList:
		for _, item := range haystack.AsList() {
			if item.Equal(needle) {
				return true
			}
		}
		return false
	case KindObject:
		_, ok := haystack.Get(needle.AsString())
		return ok
	default:
		return false
	}
}

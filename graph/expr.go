package graph

import (
	"strconv"
	"strings"
)

// evaluateCustomExpr evaluates a restricted boolean expression against
// wctx for the "custom" condition operator. Only a single comparison of
// the form "<path> <op> <literal>" is supported, where op is one of
// == != > < >= <= . This is intentionally not a general expression
// language: see DESIGN.md for why no embedded scripting engine is wired
// in here.
func evaluateCustomExpr(expr string, wctx *WorkflowContext) bool {
	expr = strings.TrimSpace(expr)
	for _, op := range []string{"==", "!=", ">=", "<=", ">", "<"} {
		idx := strings.Index(expr, op)
		if idx < 0 {
			continue
		}
		lhs := strings.TrimSpace(expr[:idx])
		rhs := strings.TrimSpace(expr[idx+len(op):])
		actual, _ := ResolvePath(wctx, lhs)
		literal := parseExprLiteral(rhs)
		switch op {
		case "==":
			return actual.Equal(literal)
		case "!=":
			return !actual.Equal(literal)
		case ">":
			r, ok := actual.Compare(literal)
			return ok && r > 0
		case "<":
			r, ok := actual.Compare(literal)
			return ok && r < 0
		case ">=":
			r, ok := actual.Compare(literal)
			return ok && r >= 0
		case "<=":
			r, ok := actual.Compare(literal)
			return ok && r <= 0
		}
	}
	return false
}

// parseExprLiteral turns the right-hand side of a restricted expression
// into a Value: quoted strings, true/false, or a number; anything else is
// treated as a bare path lookup is not supported here, so it falls back
// to a raw string literal.
func parseExprLiteral(s string) Value {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return String(s[1 : len(s)-1])
	}
	switch s {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(n)
	}
	return String(s)
}

// ApplyExprTransform evaluates a restricted arithmetic/string expression
// for the Transform node's EXPR kind: "<path> + <literal>" style single
// binary operations over numbers or string concatenation.
func ApplyExprTransform(wctx *WorkflowContext, expr string) Value {
	expr = strings.TrimSpace(expr)
	for _, op := range []string{"+", "-", "*", "/"} {
		idx := strings.Index(expr, op)
		if idx <= 0 {
			continue
		}
		lhs := strings.TrimSpace(expr[:idx])
		rhs := strings.TrimSpace(expr[idx+len(op):])
		left, _ := ResolvePath(wctx, lhs)
		right := parseExprLiteral(rhs)
		if rv, ok := ResolvePath(wctx, rhs); ok {
			right = rv
		}
		if op == "+" && (left.Kind() == KindString || right.Kind() == KindString) {
			return String(left.AsString() + right.AsString())
		}
		a, b := left.AsNumber(), right.AsNumber()
		switch op {
		case "+":
			return Number(a + b)
		case "-":
			return Number(a - b)
		case "*":
			return Number(a * b)
		case "/":
			if b == 0 {
				return Number(0)
			}
			return Number(a / b)
		}
	}
	v, _ := ResolvePath(wctx, expr)
	return v
}

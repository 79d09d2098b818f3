// Package prompttemplate implements the small text-preprocessing grammar
// shared by prompt-driven nodes: named-variable substitution ("{field}",
// "{ctx.field}") and "{# if #}/{# elif #}/{# else #}/{# endif #}"
// conditional directive blocks. It has no notion of workflow edges or
// routing; callers resolve whatever values they want substituted or
// evaluated and hand them in as a graph.Value object.
package prompttemplate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/agentgraph/workflow/graph"
)

// Substitute replaces every "{field}" occurrence in tmpl with the
// corresponding field of vars, and every "{ctx.field}" occurrence with a
// context variable read from wctx. A token whose field is missing is left
// untouched. wctx may be nil, in which case "{ctx.*}" tokens are left
// untouched too.
func Substitute(tmpl string, vars graph.Value, wctx *graph.WorkflowContext) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	out := tmpl
	for k, v := range vars.AsObject() {
		out = strings.ReplaceAll(out, "{"+k+"}", v.AsString())
	}
	if wctx == nil {
		return out
	}
	for k := range wctx.Variables() {
		token := "{ctx." + k + "}"
		if strings.Contains(out, token) {
			v, _ := wctx.Get(k)
			out = strings.ReplaceAll(out, token, v.AsString())
		}
	}
	return out
}

// conditionalPattern matches a single {# keyword [condition] #} directive.
// The condition capture group excludes "#}" so directives can't swallow
// the rest of the template on a missing close.
var conditionalPattern = regexp.MustCompile(`(?s)\{#\s*(if|elif|else|endif)(?:\s+([^#]*?))?\s*#\}`)

// Processor evaluates conditional directive blocks against a set of named
// variables. Strict mode raises an error on an undefined variable
// reference instead of treating it as falsy.
type Processor struct {
	Strict bool
}

// Process evaluates every top-level {# if #} block in template, replacing
// it with whichever branch's content matched, and leaves everything else
// untouched. Matched branches are processed recursively so nested
// conditionals resolve correctly.
func Process(template string, vars map[string]graph.Value, strict bool) (string, error) {
	return (&Processor{Strict: strict}).Process(template, vars)
}

// HasConditionals reports whether template contains any directive tokens.
func HasConditionals(template string) bool {
	return conditionalPattern.MatchString(template)
}

func (p *Processor) Process(template string, vars map[string]graph.Value) (string, error) {
	var out strings.Builder
	pos := 0
	for pos < len(template) {
		loc := conditionalPattern.FindStringSubmatchIndex(template[pos:])
		if loc == nil {
			out.WriteString(template[pos:])
			break
		}
		matchStart, matchEnd := pos+loc[0], pos+loc[1]
		keyword := template[pos+loc[2] : pos+loc[3]]

		out.WriteString(template[pos:matchStart])

		switch strings.ToLower(keyword) {
		case "if":
			block, endPos, err := parseIfBlock(template, matchStart)
			if err != nil {
				return "", err
			}
			rendered, err := p.evaluateBlock(block, vars)
			if err != nil {
				return "", err
			}
			out.WriteString(rendered)
			pos = endPos
		case "elif", "else", "endif":
			return "", fmt.Errorf("prompttemplate: unexpected %q without matching 'if' at position %d", keyword, matchStart)
		default:
			out.WriteString(template[matchStart:matchEnd])
			pos = matchEnd
		}
	}
	return out.String(), nil
}

type conditionalBlock struct {
	condition  string
	content    string
	elifBlocks []elifBlock
	elseContent string
	hasElse    bool
}

type elifBlock struct {
	condition string
	content   string
}

// parseIfBlock scans forward from the opening {# if #} tag at startPos,
// tracking nested if/endif depth, and returns the assembled block plus the
// position immediately after the matching {# endif #}.
func parseIfBlock(template string, startPos int) (conditionalBlock, int, error) {
	openLoc := conditionalPattern.FindStringSubmatchIndex(template[startPos:])
	if openLoc == nil || strings.ToLower(template[startPos+openLoc[2]:startPos+openLoc[3]]) != "if" {
		return conditionalBlock{}, 0, fmt.Errorf("prompttemplate: expected 'if' at position %d", startPos)
	}
	condition := ""
	if openLoc[4] >= 0 {
		condition = strings.TrimSpace(template[startPos+openLoc[4] : startPos+openLoc[5]])
	}
	if condition == "" {
		return conditionalBlock{}, 0, fmt.Errorf("prompttemplate: missing condition in 'if' at position %d", startPos)
	}

	block := conditionalBlock{condition: condition}
	pos := startPos + openLoc[1]
	contentStart := pos
	depth := 1
	section := "if"

	for pos < len(template) {
		loc := conditionalPattern.FindStringSubmatchIndex(template[pos:])
		if loc == nil {
			return conditionalBlock{}, 0, fmt.Errorf("prompttemplate: unclosed 'if' block starting at position %d", startPos)
		}
		mStart, mEnd := pos+loc[0], pos+loc[1]
		kw := strings.ToLower(template[pos+loc[2] : pos+loc[3]])
		var cond string
		if loc[4] >= 0 {
			cond = strings.TrimSpace(template[pos+loc[4] : pos+loc[5]])
		}

		switch kw {
		case "if":
			depth++
			pos = mEnd
		case "endif":
			depth--
			if depth == 0 {
				closeSection(&block, section, template[contentStart:mStart])
				return block, mEnd, nil
			}
			pos = mEnd
		case "elif":
			if depth != 1 {
				pos = mEnd
				continue
			}
			closeSection(&block, section, template[contentStart:mStart])
			if cond == "" {
				return conditionalBlock{}, 0, fmt.Errorf("prompttemplate: missing condition in 'elif' at position %d", mStart)
			}
			if section == "else" {
				return conditionalBlock{}, 0, fmt.Errorf("prompttemplate: 'elif' after 'else' at position %d", mStart)
			}
			section = "elif:" + cond
			contentStart = mEnd
			pos = mEnd
		case "else":
			if depth != 1 {
				pos = mEnd
				continue
			}
			closeSection(&block, section, template[contentStart:mStart])
			if section == "else" {
				return conditionalBlock{}, 0, fmt.Errorf("prompttemplate: multiple 'else' blocks at position %d", mStart)
			}
			section = "else"
			contentStart = mEnd
			pos = mEnd
		default:
			pos = mEnd
		}
	}
	return conditionalBlock{}, 0, fmt.Errorf("prompttemplate: unclosed 'if' block starting at position %d", startPos)
}

// closeSection commits the content accumulated for the section that is
// ending (the "if" branch, a pending "elif", or "else") onto block.
func closeSection(block *conditionalBlock, section, content string) {
	switch {
	case section == "if":
		block.content = content
	case section == "else":
		block.elseContent = content
		block.hasElse = true
	case strings.HasPrefix(section, "elif:"):
		block.elifBlocks = append(block.elifBlocks, elifBlock{condition: strings.TrimPrefix(section, "elif:"), content: content})
	}
}

func (p *Processor) evaluateBlock(block conditionalBlock, vars map[string]graph.Value) (string, error) {
	matched, err := p.evaluateCondition(block.condition, vars)
	if err != nil {
		return "", err
	}
	content := ""
	found := matched
	if matched {
		content = block.content
	} else {
		for _, eb := range block.elifBlocks {
			ok, err := p.evaluateCondition(eb.condition, vars)
			if err != nil {
				return "", err
			}
			if ok {
				content = eb.content
				found = true
				break
			}
		}
		if !found && block.hasElse {
			content = block.elseContent
		}
	}
	return p.Process(content, vars)
}

// evaluateCondition evaluates a single condition expression: logical
// and/or/not, membership in/not in, the six comparison operators, or a
// bare truthiness check, in that precedence order (matching the Python
// processor this is ported from).
func (p *Processor) evaluateCondition(condition string, vars map[string]graph.Value) (bool, error) {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return false, nil
	}

	if idx := strings.Index(condition, " and "); idx >= 0 {
		left, err := p.evaluateCondition(condition[:idx], vars)
		if err != nil {
			return false, err
		}
		right, err := p.evaluateCondition(condition[idx+len(" and "):], vars)
		if err != nil {
			return false, err
		}
		return left && right, nil
	}
	if idx := strings.Index(condition, " or "); idx >= 0 {
		left, err := p.evaluateCondition(condition[:idx], vars)
		if err != nil {
			return false, err
		}
		right, err := p.evaluateCondition(condition[idx+len(" or "):], vars)
		if err != nil {
			return false, err
		}
		return left || right, nil
	}
	if strings.HasPrefix(condition, "not ") {
		inner, err := p.evaluateCondition(condition[len("not "):], vars)
		return !inner, err
	}
	if idx := strings.Index(condition, " not in "); idx >= 0 {
		return p.evaluateMembership(condition[:idx], condition[idx+len(" not in "):], vars, true)
	}
	if idx := strings.Index(condition, " in "); idx >= 0 {
		return p.evaluateMembership(condition[:idx], condition[idx+len(" in "):], vars, false)
	}
	for _, op := range []string{"==", "!=", ">=", "<=", ">", "<"} {
		if idx := strings.Index(condition, op); idx >= 0 {
			return p.evaluateComparison(condition[:idx], op, condition[idx+len(op):], vars)
		}
	}

	v, err := p.resolveValue(condition, vars)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

func (p *Processor) evaluateComparison(lhs, op, rhs string, vars map[string]graph.Value) (bool, error) {
	left, err := p.resolveValue(strings.TrimSpace(lhs), vars)
	if err != nil {
		return false, err
	}
	right, err := p.resolveValue(strings.TrimSpace(rhs), vars)
	if err != nil {
		return false, err
	}
	switch op {
	case "==":
		return left.Equal(right), nil
	case "!=":
		return !left.Equal(right), nil
	default:
		cmp, ok := left.Compare(right)
		if !ok {
			return false, nil
		}
		switch op {
		case ">":
			return cmp > 0, nil
		case "<":
			return cmp < 0, nil
		case ">=":
			return cmp >= 0, nil
		case "<=":
			return cmp <= 0, nil
		}
	}
	return false, nil
}

func (p *Processor) evaluateMembership(lhs, rhs string, vars map[string]graph.Value, negate bool) (bool, error) {
	item, err := p.resolveValue(strings.TrimSpace(lhs), vars)
	if err != nil {
		return false, err
	}
	container, err := p.resolveValue(strings.TrimSpace(rhs), vars)
	if err != nil {
		return false, err
	}
	found := false
	switch container.Kind() {
	case graph.KindList:
		for _, el := range container.AsList() {
			if el.Equal(item) {
				found = true
				break
			}
		}
	case graph.KindString:
		found = strings.Contains(container.AsString(), item.AsString())
	case graph.KindObject:
		_, found = container.Get(item.AsString())
	}
	if negate {
		return !found, nil
	}
	return found, nil
}

// resolveValue resolves a literal (quoted string, number, bool, none) or a
// dotted variable reference ("user.name", "items.0") against vars.
func (p *Processor) resolveValue(expr string, vars map[string]graph.Value) (graph.Value, error) {
	expr = strings.TrimSpace(expr)

	if len(expr) >= 2 && (expr[0] == '\'' || expr[0] == '"') && expr[len(expr)-1] == expr[0] {
		return graph.String(expr[1 : len(expr)-1]), nil
	}
	switch strings.ToLower(expr) {
	case "true":
		return graph.Bool(true), nil
	case "false":
		return graph.Bool(false), nil
	case "none", "null":
		return graph.Null(), nil
	}
	if n, err := strconv.ParseFloat(expr, 64); err == nil {
		return graph.Number(n), nil
	}

	return p.resolveVariable(expr, vars)
}

func (p *Processor) resolveVariable(name string, vars map[string]graph.Value) (graph.Value, error) {
	segments := strings.Split(name, ".")
	root := segments[0]

	v, ok := vars[root]
	if !ok {
		if p.Strict {
			return graph.Null(), fmt.Errorf("prompttemplate: undefined variable %q", root)
		}
		return graph.Null(), nil
	}

	for _, seg := range segments[1:] {
		if idx, err := strconv.Atoi(seg); err == nil {
			list := v.AsList()
			if idx < 0 || idx >= len(list) {
				return graph.Null(), nil
			}
			v = list[idx]
			continue
		}
		next, ok := v.Get(seg)
		if !ok {
			return graph.Null(), nil
		}
		v = next
	}
	return v, nil
}

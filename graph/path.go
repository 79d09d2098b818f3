package graph

import (
	"strconv"
	"strings"
)

// ResolvePath resolves a dotted path expression against a WorkflowContext,
// matching the five root namespaces conditions, dataMapping, and templates
// use throughout a workflow:
//
//	$input.<path>       the execution's original input
//	$output.<path>      the workflow's accumulated output so far
//	$node.<id>.<path>    a specific node's recorded output
//	$ctx.<name>.<path>   a context variable
//	$workflow.<field>    workflow-level metadata (id or workflowId, executionId, lastNode)
//
// A path with no recognized root is resolved as a bare $ctx variable name,
// so "score > 0.8" style conditions can write Field: "score" directly. The
// second return value is false when the path cannot be resolved at all
// (unknown root, missing node, missing variable); callers generally treat
// that the same as a null Value.
func ResolvePath(wctx *WorkflowContext, path string) (Value, bool) {
	if path == "" {
		return Null(), false
	}

	root, rest := splitPathRoot(path)
	switch root {
	case "$input":
		return resolveDotted(wctx.InputData, rest)
	case "$output":
		return resolveDotted(wctx.OutputData, rest)
	case "$workflow":
		return resolveWorkflowField(wctx, rest)
	case "$node":
		nodeID, remainder := splitFirstSegment(rest)
		out, ok := wctx.NodeOutput(nodeID)
		if !ok {
			return Null(), false
		}
		return resolveDotted(out, remainder)
	case "$ctx":
		name, remainder := splitFirstSegment(rest)
		v, ok := wctx.Get(name)
		if !ok {
			return Null(), false
		}
		return resolveDotted(v, remainder)
	default:
		// Bare name: treat the whole path as a $ctx variable lookup.
		name, remainder := splitFirstSegment(path)
		v, ok := wctx.Get(name)
		if !ok {
			return Null(), false
		}
		return resolveDotted(v, remainder)
	}
}

func resolveWorkflowField(wctx *WorkflowContext, field string) (Value, bool) {
	switch field {
	case "id", "workflowId":
		return String(wctx.WorkflowID), true
	case "executionId":
		return String(wctx.ExecutionID), true
	case "lastNode":
		return String(wctx.LastVisited()), true
	default:
		return Null(), false
	}
}

// splitPathRoot splits "$input.foo.bar" into ("$input", "foo.bar"). Roots
// not starting with "$" return ("", path) unchanged.
func splitPathRoot(path string) (root, rest string) {
	if !strings.HasPrefix(path, "$") {
		return "", path
	}
	idx := strings.IndexByte(path, '.')
	if idx < 0 {
		return path, ""
	}
	return path[:idx], path[idx+1:]
}

// splitFirstSegment splits "foo.bar.baz" into ("foo", "bar.baz").
func splitFirstSegment(path string) (first, rest string) {
	idx := strings.IndexByte(path, '.')
	if idx < 0 {
		return path, ""
	}
	return path[:idx], path[idx+1:]
}

// resolveDotted walks v through a dotted/bracketed field path, e.g.
// "items[0].name" or "user.address.city". Each segment is either an
// object field or a "[N]" list index.
func resolveDotted(v Value, path string) (Value, bool) {
	if path == "" {
		return v, true
	}
	for _, seg := range splitPathSegments(path) {
		if seg.isIndex {
			list := v.AsList()
			if seg.index < 0 || seg.index >= len(list) {
				return Null(), false
			}
			v = list[seg.index]
			continue
		}
		next, ok := v.Get(seg.name)
		if !ok {
			return Null(), false
		}
		v = next
	}
	return v, true
}

type pathSegment struct {
	name    string
	index   int
	isIndex bool
}

// splitPathSegments tokenizes "items[0].name" into
// [{name:"items"} {isIndex:true index:0} {name:"name"}].
func splitPathSegments(path string) []pathSegment {
	var segs []pathSegment
	for _, part := range strings.Split(path, ".") {
		for part != "" {
			open := strings.IndexByte(part, '[')
			if open < 0 {
				segs = append(segs, pathSegment{name: part})
				part = ""
				break
			}
			if open > 0 {
				segs = append(segs, pathSegment{name: part[:open]})
			}
			close := strings.IndexByte(part[open:], ']')
			if close < 0 {
				segs = append(segs, pathSegment{name: part})
				part = ""
				break
			}
			idxStr := part[open+1 : open+close]
			idx, err := strconv.Atoi(idxStr)
			if err == nil {
				segs = append(segs, pathSegment{isIndex: true, index: idx})
			}
			part = part[open+close+1:]
		}
	}
	return segs
}

// TransformData applies an edge's dataMapping to build the input Value
// handed to the edge's target node: each destination field is resolved
// from a source path against wctx. A source path that cannot be resolved
// sets a companion "_missing_<field>" flag to true on the output object
// rather than failing the edge traversal.
func TransformData(wctx *WorkflowContext, mapping map[string]string) Value {
	if len(mapping) == 0 {
		return wctx.OutputData
	}
	out := make(map[string]Value, len(mapping))
	for dest, srcPath := range mapping {
		v, ok := ResolvePath(wctx, srcPath)
		out[dest] = v
		if !ok {
			out["_missing_"+dest] = Bool(true)
		}
	}
	return Object(out)
}

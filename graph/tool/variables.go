package tool

import (
	"fmt"
	"strings"

	"github.com/agentgraph/workflow/graph"
)

// ApplyAssignments runs a tool's VariableAssignment list against result,
// writing into wctx. AssignSync entries run inline and can return an
// error under AssignErrRaise; AssignAsync/AssignAwait entries are skipped
// here and run through ApplyAsyncAssignments, which returns no error: a
// failure there is written to the _assignment_error_<variable> context
// variable under AssignErrLog and dropped otherwise.
func ApplyAssignments(wctx *graph.WorkflowContext, result map[string]interface{}, assignments []VariableAssignment) error {
	for _, a := range assignments {
		if a.Mode == AssignAsync || a.Mode == AssignAwait {
			continue
		}
		if err := applyOne(wctx, result, a); err != nil {
			switch a.OnError {
			case AssignErrRaise:
				return err
			case AssignErrLog:
				wctx.Set("_assignment_error_"+a.Variable, graph.String(err.Error()))
			case AssignErrIgnore:
			default:
			}
		}
	}
	return nil
}

// ApplyAsyncAssignments runs the subset of assignments flagged Async or
// Await. Callers schedule this separately from ApplyAssignments (Async
// fire-and-forget in a goroutine, Await joined before the node returns).
func ApplyAsyncAssignments(wctx *graph.WorkflowContext, result map[string]interface{}, assignments []VariableAssignment) {
	for _, a := range assignments {
		if a.Mode != AssignAsync && a.Mode != AssignAwait {
			continue
		}
		if err := applyOne(wctx, result, a); err != nil && a.OnError == AssignErrLog {
			wctx.Set("_assignment_error_"+a.Variable, graph.String(err.Error()))
		}
	}
}

func applyOne(wctx *graph.WorkflowContext, result map[string]interface{}, a VariableAssignment) error {
	var source graph.Value
	if a.SourcePath != "" {
		v, ok := lookupSourcePath(result, a.SourcePath)
		if !ok {
			if a.Operator == AssignSetIfExists {
				return nil
			}
			source = graph.Null()
		} else {
			source = v
		}
	} else if a.Value != nil {
		source = graph.FromNative(a.Value)
	}

	switch a.Operator {
	case AssignSet:
		wctx.Set(a.Variable, source)
	case AssignSetIfExists:
		if a.SourcePath != "" {
			if _, ok := lookupSourcePath(result, a.SourcePath); !ok {
				return nil
			}
		}
		wctx.Set(a.Variable, source)
	case AssignSetIfTruthy:
		if source.Truthy() {
			wctx.Set(a.Variable, source)
		}
	case AssignAppend:
		current, _ := wctx.Get(a.Variable)
		items := append(append([]graph.Value{}, current.AsList()...), source)
		wctx.Set(a.Variable, graph.List(items...))
	case AssignIncrement:
		current, _ := wctx.Get(a.Variable)
		delta := source.AsNumber()
		if delta == 0 && a.SourcePath == "" && a.Value == nil {
			delta = 1
		}
		wctx.Set(a.Variable, graph.Number(current.AsNumber()+delta))
	case AssignTransform:
		wctx.Set(a.Variable, source)
	default:
		return fmt.Errorf("variable assignment: unknown operator %q", a.Operator)
	}
	return nil
}

// lookupSourcePath walks a dotted path ("data.total") into a tool
// result's raw map[string]interface{} shape and returns it as a Value.
func lookupSourcePath(result map[string]interface{}, path string) (graph.Value, bool) {
	segments := strings.Split(path, ".")
	var cur interface{} = result
	for _, seg := range segments {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return graph.Null(), false
		}
		next, ok := m[seg]
		if !ok {
			return graph.Null(), false
		}
		cur = next
	}
	return graph.FromNative(cur), true
}

package node

import (
	"context"
	"testing"

	"github.com/agentgraph/workflow/graph"
)

func TestTransformExtractKeepsOnlyListedFields(t *testing.T) {
	tr := &Transform{NodeID: "t1", Kind: TransformExtract, Fields: []string{"name"}}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.Object(map[string]graph.Value{
		"name": graph.String("Ada"),
		"age":  graph.Number(36),
	})

	res := tr.Run(context.Background(), wctx)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	if _, ok := res.Output.Get("age"); ok {
		t.Fatal("expected 'age' to be excluded")
	}
	name, _ := res.Output.Get("name")
	if name.AsString() != "Ada" {
		t.Fatalf("expected name 'Ada', got %q", name.AsString())
	}
}

func TestTransformTemplateSubstitutesFields(t *testing.T) {
	tr := &Transform{NodeID: "t1", Kind: TransformTemplate, TemplateStr: "Hello, {name}!"}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.Object(map[string]graph.Value{"name": graph.String("Grace")})

	res := tr.Run(context.Background(), wctx)
	if res.Output.AsString() != "Hello, Grace!" {
		t.Fatalf("expected templated string, got %q", res.Output.AsString())
	}
}

func TestTransformFilterKeepsMatchingElements(t *testing.T) {
	tr := &Transform{
		NodeID: "t1",
		Kind:   TransformFilter,
		FilterCondition: &graph.ConditionGroup{Conditions: []graph.Condition{
			{Field: "$ctx.item.active", Operator: graph.OpIsTrue},
		}},
	}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.List(
		graph.Object(map[string]graph.Value{"active": graph.Bool(true), "id": graph.Number(1)}),
		graph.Object(map[string]graph.Value{"active": graph.Bool(false), "id": graph.Number(2)}),
	)

	res := tr.Run(context.Background(), wctx)
	items := res.Output.AsList()
	if len(items) != 1 {
		t.Fatalf("expected 1 kept item, got %d", len(items))
	}
	id, _ := items[0].Get("id")
	if id.AsNumber() != 1 {
		t.Fatalf("expected kept item id 1, got %v", id.Native())
	}
}

func TestTransformSplitOnDelimiter(t *testing.T) {
	tr := &Transform{NodeID: "t1", Kind: TransformSplit, SplitDelimiter: ";"}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.String("a;b;c")

	res := tr.Run(context.Background(), wctx)
	items := res.Output.AsList()
	if len(items) != 3 || items[1].AsString() != "b" {
		t.Fatalf("expected [a b c], got %v", res.Output.Native())
	}
}

func TestTransformFormatJSON(t *testing.T) {
	tr := &Transform{NodeID: "t1", Kind: TransformFormat, FormatKind: "json"}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.Object(map[string]graph.Value{"a": graph.Number(1)})

	res := tr.Run(context.Background(), wctx)
	if res.Output.AsString() != `{"a":1}` {
		t.Fatalf("expected compact json, got %q", res.Output.AsString())
	}
}

func TestTransformMapUsesDataMapping(t *testing.T) {
	tr := &Transform{NodeID: "t1", Kind: TransformMap, Mapping: map[string]string{
		"full_name": "$output.name",
	}}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.Object(map[string]graph.Value{"name": graph.String("Linus")})

	res := tr.Run(context.Background(), wctx)
	full, _ := res.Output.Get("full_name")
	if full.AsString() != "Linus" {
		t.Fatalf("expected mapped full_name 'Linus', got %v", res.Output.Native())
	}
}

func TestTransformUnknownKindReturnsError(t *testing.T) {
	tr := &Transform{NodeID: "t1", Kind: "bogus"}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())

	res := tr.Run(context.Background(), wctx)
	if res.Err == nil {
		t.Fatal("expected an error for an unknown transform kind")
	}
}

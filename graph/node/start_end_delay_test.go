package node

import (
	"context"
	"testing"
	"time"

	"github.com/agentgraph/workflow/graph"
)

func TestStartMergesDefaultValuesUnderInput(t *testing.T) {
	s := &Start{
		NodeID: "start",
		DefaultValues: map[string]graph.Value{
			"locale": graph.String("en-US"),
		},
	}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Object(map[string]graph.Value{
		"locale": graph.String("fr-FR"),
		"name":   graph.String("Ada"),
	}))

	res := s.Run(context.Background(), wctx)
	locale, _ := res.Output.Get("locale")
	name, _ := res.Output.Get("name")
	if locale.AsString() != "fr-FR" {
		t.Fatalf("expected input to win over default, got %q", locale.AsString())
	}
	if name.AsString() != "Ada" {
		t.Fatalf("expected input field preserved, got %q", name.AsString())
	}
}

func TestStartRecordsMissingSchemaFieldsWithoutFailing(t *testing.T) {
	s := &Start{
		NodeID: "start",
		Schema: map[string]interface{}{"required": []interface{}{"email"}},
	}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Object(map[string]graph.Value{
		"name": graph.String("Ada"),
	}))

	res := s.Run(context.Background(), wctx)
	if res.Err != nil {
		t.Fatalf("Start must never fail on schema mismatch, got %v", res.Err)
	}
	errs, ok := wctx.Get("_start_schema_errors")
	if !ok || len(errs.AsList()) != 1 {
		t.Fatalf("expected one recorded missing field, got %v", errs.Native())
	}
}

func TestEndProjectsOutputKey(t *testing.T) {
	e := &End{NodeID: "end", OutputKey: "result"}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.Object(map[string]graph.Value{"result": graph.String("done"), "extra": graph.Number(1)})

	res := e.Run(context.Background(), wctx)
	out, _ := res.Output.Get("output")
	if out.AsString() != "done" {
		t.Fatalf("expected projected output 'done', got %v", out.Native())
	}
}

func TestDelayPassesThroughInputUnchanged(t *testing.T) {
	d := &Delay{NodeID: "delay", DelayMs: 1}
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())
	wctx.OutputData = graph.String("payload")

	start := time.Now()
	res := d.Run(context.Background(), wctx)
	if time.Since(start) < time.Millisecond {
		t.Fatal("expected Delay to wait at least DelayMs")
	}
	if res.Output.AsString() != "payload" {
		t.Fatalf("expected passthrough output, got %v", res.Output.Native())
	}
}

func TestDelayRespectsContextCancellation(t *testing.T) {
	d := &Delay{NodeID: "delay", DelaySeconds: 5}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	wctx := graph.NewWorkflowContext("wf-1", "run-1", graph.Null())

	res := d.Run(ctx, wctx)
	if res.Err == nil {
		t.Fatal("expected cancellation error")
	}
}

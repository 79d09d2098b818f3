// Command demo builds a small voice-agent workflow in process — a
// greeting Start node, an LLM node answering the caller's question,
// and an End node — saves it to a local spec registry, loads it back,
// and runs it once to completion. It replaces the teacher's ad hoc
// example mains with one wired end to end through the builder,
// registry, node factory, and engine together.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/agentgraph/workflow/graph"
	"github.com/agentgraph/workflow/graph/emit"
	"github.com/agentgraph/workflow/graph/model"
	"github.com/agentgraph/workflow/graph/node"
	"github.com/agentgraph/workflow/graph/registry"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()

	spec, err := buildSpec()
	if err != nil {
		return fmt.Errorf("build spec: %w", err)
	}

	dir, err := os.MkdirTemp("", "agentgraph-demo-registry-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	reg := registry.New(registry.NewLocalStorage(dir))
	version, err := reg.Save(ctx, registry.KindWorkflow, spec.ID, spec, "")
	if err != nil {
		return fmt.Errorf("save workflow: %w", err)
	}
	if err := reg.Publish(ctx, registry.KindWorkflow, spec.ID, version); err != nil {
		return fmt.Errorf("publish workflow: %w", err)
	}
	fmt.Printf("saved %s@%s to the registry\n", spec.ID, version)

	raw, _, err := reg.Get(ctx, registry.KindWorkflow, spec.ID, "")
	if err != nil {
		return fmt.Errorf("load workflow: %w", err)
	}
	loaded, err := graph.DecodeWorkflowSpec(raw)
	if err != nil {
		return fmt.Errorf("decode workflow: %w", err)
	}

	mockModel := &model.MockChatModel{
		Responses: []model.ChatOut{{Text: "Your appointment is confirmed for 3pm tomorrow."}},
	}

	factory := node.NewFactory()
	nodes, err := factory.Build(loaded.Nodes, node.FactoryDeps{
		Models:      map[string]model.ChatModel{"assistant": mockModel},
		DefaultRole: "caller",
	})
	if err != nil {
		return fmt.Errorf("build nodes: %w", err)
	}

	wf, err := graph.Build(loaded, nodes)
	if err != nil {
		return fmt.Errorf("build workflow: %w", err)
	}

	engine, err := graph.New(emit.NewLogEmitter(os.Stdout, false))
	if err != nil {
		return fmt.Errorf("new engine: %w", err)
	}

	input := graph.Object(map[string]graph.Value{
		"question": graph.String("When is my next appointment?"),
	})
	finalCtx, err := engine.Execute(ctx, wf, "demo-run-1", input)
	if err != nil {
		return fmt.Errorf("execute: %w", err)
	}

	fmt.Println("execution path:", finalCtx.ExecutionPath())
	out, _ := finalCtx.NodeOutput("respond")
	fmt.Println("final output:", out.Native())
	return nil
}

func buildSpec() (*graph.WorkflowSpec, error) {
	start := graph.NewNodeBuilder("greet", graph.NodeStart).
		WithName("Greet caller")

	answer := graph.NewNodeBuilder("answer", graph.NodeLLM).
		WithName("Answer caller question").
		WithLLMRef("assistant").
		WithPrompt("{question}")

	end := graph.NewNodeBuilder("respond", graph.NodeEnd).
		WithName("Respond to caller")

	edge1 := graph.NewEdgeBuilder("greet-to-answer", "greet", "answer")
	edge2 := graph.NewEdgeBuilder("answer-to-respond", "answer", "respond")

	return graph.NewWorkflowBuilder("voice-appointment-lookup", "Appointment lookup").
		WithVersion("1.0.0").
		WithDescription("Answers a caller's question about their next appointment.").
		WithTags("demo", "voice").
		AddNode(start).
		AddNode(answer).
		AddNode(end).
		AddEdge(edge1).
		AddEdge(edge2).
		Build()
}

package node

import (
	"fmt"

	"github.com/agentgraph/workflow/graph"
	"github.com/agentgraph/workflow/graph/model"
	"github.com/agentgraph/workflow/graph/tool"
)

// FactoryDeps bundles every externally-supplied dependency a NodeSpec
// may reference by name (llmRef/toolRef/agentRef/subworkflow target),
// resolved once at Workflow build time rather than threaded through
// individual node constructors.
type FactoryDeps struct {
	Models      map[string]model.ChatModel
	Agents      map[string]Agent
	Tools       map[string]ToolExecutor
	Workflows   WorkflowExecutor
	Costs       *graph.CostTracker
	DefaultRole string
}

// CustomFactory builds a Node from a NodeSpec of kind NodeCustom,
// registered at runtime for subtypes the built-in kinds don't cover
// (spec.md's NodeType.CUSTOM escape hatch).
type CustomFactory func(spec *graph.NodeSpec, deps FactoryDeps) (graph.Node, error)

// Factory resolves NodeSpecs into graph.Node implementations, one
// builder function per NodeType plus a registry of CustomFactory
// functions keyed by the NodeSpec's custom subtype (read from
// spec.Metadata["customType"]).
type Factory struct {
	custom map[string]CustomFactory
}

func NewFactory() *Factory {
	return &Factory{custom: make(map[string]CustomFactory)}
}

// RegisterCustom adds a builder for a NodeType.CUSTOM subtype.
func (f *Factory) RegisterCustom(subtype string, build CustomFactory) {
	f.custom[subtype] = build
}

// Build resolves every NodeSpec in specs into a graph.Node, returning
// the map Workflow construction (graph.Build) expects.
func (f *Factory) Build(specs []graph.NodeSpec, deps FactoryDeps) (map[string]graph.Node, error) {
	nodes := make(map[string]graph.Node, len(specs))
	for i := range specs {
		spec := &specs[i]
		n, err := f.buildOne(spec, deps)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", spec.ID, err)
		}
		nodes[spec.ID] = n
	}
	return nodes, nil
}

func (f *Factory) buildOne(spec *graph.NodeSpec, deps FactoryDeps) (graph.Node, error) {
	switch spec.NodeType {
	case graph.NodeStart:
		return &Start{NodeID: spec.ID, DefaultValues: paramsToValues(spec.Param("defaultValues"))}, nil

	case graph.NodeEnd:
		return &End{NodeID: spec.ID, OutputKey: spec.Param("outputKey").AsString()}, nil

	case graph.NodeLLM:
		m := deps.Models[spec.LLMRef]
		return &LLM{
			NodeID:       spec.ID,
			Model:        m,
			ModelName:    spec.LLMRef,
			SystemPrompt: spec.Param("systemPrompt").AsString(),
			UserTemplate: spec.Prompt,
			Costs:        deps.Costs,
		}, nil

	case graph.NodeAgent:
		return &AgentNode{
			NodeID:    spec.ID,
			Delegate:  deps.Agents[spec.AgentRef],
			OutputKey: spec.Param("outputKey").AsString(),
		}, nil

	case graph.NodeTool:
		return &ToolNode{
			NodeID:   spec.ID,
			ToolName: spec.ToolRef,
			Executor: deps.Tools[spec.ToolRef],
			Caller:   tool.CallerContext{Role: deps.DefaultRole},
		}, nil

	case graph.NodeSubworkflow:
		return &Subworkflow{
			NodeID:           spec.ID,
			TargetWorkflowID: spec.Param("targetWorkflowId").AsString(),
			Executor:         deps.Workflows,
			OutputMapping:    paramsToStringMap(spec.Param("outputMapping")),
		}, nil

	case graph.NodeDecision:
		return buildDecision(spec), nil

	case graph.NodeSwitch:
		return buildSwitch(spec), nil

	case graph.NodeParallel:
		return buildParallel(spec, deps, f), nil

	case graph.NodeLoop:
		return buildLoop(spec, deps, f), nil

	case graph.NodeTransform:
		return buildTransform(spec), nil

	case graph.NodeWebhook:
		return buildWebhook(spec), nil

	case graph.NodeHumanInput:
		return buildHumanInput(spec, deps), nil

	case graph.NodeDelay:
		return &Delay{
			NodeID:       spec.ID,
			DelaySeconds: spec.Param("delaySeconds").AsNumber(),
			DelayMs:      int(spec.Param("delayMs").AsNumber()),
		}, nil

	case graph.NodeCustom:
		subtype := ""
		if spec.Metadata != nil {
			if s, ok := spec.Metadata["customType"].(string); ok {
				subtype = s
			}
		}
		build, ok := f.custom[subtype]
		if !ok {
			return nil, fmt.Errorf("no custom factory registered for subtype %q", subtype)
		}
		return build(spec, deps)

	default:
		return nil, fmt.Errorf("unknown node type %q", spec.NodeType)
	}
}

func paramsToValues(v graph.Value) map[string]graph.Value {
	if v.Kind() != graph.KindObject {
		return nil
	}
	return v.AsObject()
}

func paramsToStringMap(v graph.Value) map[string]string {
	obj := v.AsObject()
	if len(obj) == 0 {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, val := range obj {
		out[k] = val.AsString()
	}
	return out
}

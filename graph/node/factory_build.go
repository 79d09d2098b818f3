package node

import (
	"net/http"

	"github.com/agentgraph/workflow/graph"
)

// buildDecision reads the cases from spec.Metadata["decisionCases"] (a
// []DecisionCase authored as Go structs, e.g. through graph/builder.go)
// and DefaultResult from spec.Params["defaultResult"]. spec.Params["cases"]
// is not read, so a spec loaded from serialized JSON yields a Decision
// with no cases that always returns DefaultResult.
func buildDecision(spec *graph.NodeSpec) *Decision {
	d := &Decision{NodeID: spec.ID, DefaultResult: spec.Param("defaultResult").AsString()}
	if cases, ok := spec.Metadata["decisionCases"].([]DecisionCase); ok {
		d.Cases = cases
	}
	return d
}

func buildSwitch(spec *graph.NodeSpec) *Switch {
	s := &Switch{
		NodeID:          spec.ID,
		SwitchField:     spec.Param("switchField").AsString(),
		DefaultTarget:   spec.Param("defaultTarget").AsString(),
		CaseInsensitive: spec.Param("caseInsensitive").Truthy(),
	}
	if cases, ok := spec.Metadata["switchCases"].([]SwitchCase); ok {
		s.Cases = cases
	}
	return s
}

func buildParallel(spec *graph.NodeSpec, deps FactoryDeps, f *Factory) *Parallel {
	p := &Parallel{
		NodeID:         spec.ID,
		MaxConcurrency: int(spec.Param("maxConcurrency").AsNumber()),
		FailFast:       spec.Param("failFast").Truthy(),
		Collect:        CollectMode(spec.Param("collect").AsString()),
	}
	if branchSpecs, ok := spec.Metadata["branches"].([]graph.NodeSpec); ok {
		for _, bs := range branchSpecs {
			bn, err := f.buildOne(&bs, deps)
			if err == nil {
				p.Branches = append(p.Branches, Branch{Name: bs.ID, Node: bn})
			}
		}
	}
	return p
}

func buildLoop(spec *graph.NodeSpec, deps FactoryDeps, f *Factory) *Loop {
	l := &Loop{
		NodeID:         spec.ID,
		MaxIterations:  int(spec.Param("maxIterations").AsNumber()),
		IterationVar:   spec.Param("iterationVar").AsString(),
		AccumulatorVar: spec.Param("accumulatorVar").AsString(),
		LoopBackTo:     spec.Param("loopBackTo").AsString(),
		ExitTo:         spec.Param("exitTo").AsString(),
	}
	if bodySpec, ok := spec.Metadata["body"].(*graph.NodeSpec); ok {
		if bn, err := f.buildOne(bodySpec, deps); err == nil {
			l.Body = bn
		}
	}
	if cond, ok := spec.Metadata["exitCondition"].(*graph.ConditionGroup); ok {
		l.ExitCondition = cond
	}
	return l
}

func buildTransform(spec *graph.NodeSpec) *Transform {
	t := &Transform{
		NodeID:         spec.ID,
		Kind:           TransformKind(spec.Param("kind").AsString()),
		TemplateStr:    spec.Param("template").AsString(),
		SplitDelimiter: spec.Param("splitDelimiter").AsString(),
		FormatKind:     spec.Param("formatKind").AsString(),
		Path:           spec.Param("path").AsString(),
		Expr:           spec.Param("expr").AsString(),
	}
	t.Mapping = paramsToStringMap(spec.Param("mapping"))
	if fields := spec.Param("fields"); fields.Kind() == graph.KindList {
		for _, f := range fields.AsList() {
			t.Fields = append(t.Fields, f.AsString())
		}
	}
	if sources := spec.Param("mergeSources"); sources.Kind() == graph.KindList {
		for _, s := range sources.AsList() {
			t.MergeSources = append(t.MergeSources, s.AsString())
		}
	}
	if cond, ok := spec.Metadata["filterCondition"].(*graph.ConditionGroup); ok {
		t.FilterCondition = cond
	}
	return t
}

func buildWebhook(spec *graph.NodeSpec) *Webhook {
	w := &Webhook{
		NodeID:       spec.ID,
		URL:          spec.Param("url").AsString(),
		Method:       spec.Param("method").AsString(),
		BodyTemplate: spec.Param("bodyTemplate").AsString(),
		BodyKey:      spec.Param("bodyKey").AsString(),
		TimeoutMs:    int(spec.Param("timeoutMs").AsNumber()),
		ResponseType: spec.Param("responseType").AsString(),
		Client:       http.DefaultClient,
	}
	w.Headers = paramsToStringMap(spec.Param("headers"))
	if statuses := spec.Param("expectedStatus"); statuses.Kind() == graph.KindList {
		for _, s := range statuses.AsList() {
			w.ExpectedStatus = append(w.ExpectedStatus, int(s.AsNumber()))
		}
	}
	return w
}

func buildHumanInput(spec *graph.NodeSpec, deps FactoryDeps) *HumanInput {
	h := &HumanInput{
		NodeID:           spec.ID,
		ApprovalMode:     spec.Param("approvalMode").Truthy(),
		RetryOnInvalid:   spec.Param("retryOnInvalid").Truthy(),
		MaxRetries:       int(spec.Param("maxRetries").AsNumber()),
		ExtractionPrompt: spec.Param("extractionPrompt").AsString(),
	}
	if fields := spec.Param("requiredFields"); fields.Kind() == graph.KindList {
		for _, f := range fields.AsList() {
			h.RequiredFields = append(h.RequiredFields, f.AsString())
		}
	}
	h.FieldPrompts = paramsToStringMap(spec.Param("fieldPrompts"))
	if spec.LLMRef != "" {
		h.Extractor = deps.Models[spec.LLMRef]
	}
	return h
}

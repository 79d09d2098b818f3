package graph

import "fmt"

// WorkflowBuilder composes NodeSpecs and EdgeSpecs into a validated
// WorkflowSpec, inferring the start node and end nodes by topology when
// not set explicitly. It does not resolve Node implementations itself —
// pair it with a node.Factory and graph.Build to get an executable
// Workflow.
type WorkflowBuilder struct {
	spec     WorkflowSpec
	nodeErrs []error
}

// NewWorkflowBuilder starts a WorkflowBuilder for a workflow identified
// by id, defaulting RoutingStrategy to FirstMatch and MaxIterations to
// 100 the way the engine guards against runaway loops.
func NewWorkflowBuilder(id, name string) *WorkflowBuilder {
	return &WorkflowBuilder{
		spec: WorkflowSpec{
			ID:              id,
			Name:            name,
			RoutingStrategy: FirstMatch,
			MaxIterations:   100,
			Metadata:        WorkflowMetadata{Status: StatusDraft},
		},
	}
}

func (b *WorkflowBuilder) WithVersion(v string) *WorkflowBuilder {
	b.spec.Version = v
	return b
}

func (b *WorkflowBuilder) WithDescription(d string) *WorkflowBuilder {
	b.spec.Description = d
	return b
}

func (b *WorkflowBuilder) WithRoutingStrategy(s RoutingStrategy) *WorkflowBuilder {
	b.spec.RoutingStrategy = s
	return b
}

func (b *WorkflowBuilder) WithMaxIterations(n int) *WorkflowBuilder {
	b.spec.MaxIterations = n
	return b
}

func (b *WorkflowBuilder) WithTimeoutSeconds(s float64) *WorkflowBuilder {
	b.spec.TimeoutSeconds = s
	return b
}

func (b *WorkflowBuilder) WithStartNode(id string) *WorkflowBuilder {
	b.spec.StartNodeID = id
	return b
}

func (b *WorkflowBuilder) WithEndNodes(ids ...string) *WorkflowBuilder {
	b.spec.EndNodeIDs = append(b.spec.EndNodeIDs, ids...)
	return b
}

func (b *WorkflowBuilder) WithTags(tags ...string) *WorkflowBuilder {
	b.spec.Metadata.Tags = append(b.spec.Metadata.Tags, tags...)
	return b
}

func (b *WorkflowBuilder) WithOwner(owner string) *WorkflowBuilder {
	b.spec.Metadata.Owner = owner
	return b
}

// AddNode appends a NodeSpec assembled by a NodeBuilder.
func (b *WorkflowBuilder) AddNode(nb *NodeBuilder) *WorkflowBuilder {
	if err := nb.err; err != nil {
		b.nodeErrs = append(b.nodeErrs, err)
		return b
	}
	b.spec.Nodes = append(b.spec.Nodes, nb.spec)
	return b
}

// AddEdge appends an EdgeSpec assembled by an EdgeBuilder.
func (b *WorkflowBuilder) AddEdge(eb *EdgeBuilder) *WorkflowBuilder {
	b.spec.Edges = append(b.spec.Edges, eb.spec)
	return b
}

// Build validates node id uniqueness, edge endpoint existence, and
// start/end reachability, inferring StartNodeID/EndNodeIDs from node
// type when the caller left them unset, then returns the finished
// WorkflowSpec. Pass the result to a node.Factory and graph.Build to
// obtain an executable Workflow.
func (b *WorkflowBuilder) Build() (*WorkflowSpec, error) {
	if len(b.nodeErrs) > 0 {
		return nil, fmt.Errorf("workflow %q: %w", b.spec.ID, b.nodeErrs[0])
	}
	if b.spec.ID == "" {
		return nil, NewError(KindWorkflowBuildError, "workflow id is required")
	}
	if len(b.spec.Nodes) == 0 {
		return nil, NewError(KindWorkflowBuildError, "workflow has no nodes")
	}

	ids := make(map[string]*NodeSpec, len(b.spec.Nodes))
	for i := range b.spec.Nodes {
		n := &b.spec.Nodes[i]
		if n.ID == "" {
			return nil, NewError(KindWorkflowBuildError, "node missing id")
		}
		if _, dup := ids[n.ID]; dup {
			return nil, NewError(KindWorkflowBuildError, "duplicate node id "+n.ID).WithNode(n.ID)
		}
		ids[n.ID] = n
	}

	if b.spec.StartNodeID == "" {
		for i := range b.spec.Nodes {
			if b.spec.Nodes[i].NodeType == NodeStart {
				b.spec.StartNodeID = b.spec.Nodes[i].ID
				break
			}
		}
	}
	if b.spec.StartNodeID == "" {
		return nil, NewError(KindWorkflowBuildError, "workflow has no start node and none could be inferred")
	}
	if _, ok := ids[b.spec.StartNodeID]; !ok {
		return nil, NewError(KindWorkflowBuildError, "startNodeId references unknown node").WithNode(b.spec.StartNodeID)
	}

	if len(b.spec.EndNodeIDs) == 0 {
		for i := range b.spec.Nodes {
			if b.spec.Nodes[i].NodeType == NodeEnd {
				b.spec.EndNodeIDs = append(b.spec.EndNodeIDs, b.spec.Nodes[i].ID)
			}
		}
	}

	outgoing := make(map[string]bool, len(b.spec.Nodes))
	for i := range b.spec.Edges {
		e := &b.spec.Edges[i]
		if e.SourceNodeID == "" || e.TargetNodeID == "" {
			return nil, NewError(KindWorkflowBuildError, "edge missing source or target node id")
		}
		if _, ok := ids[e.SourceNodeID]; !ok {
			return nil, NewError(KindWorkflowBuildError, "edge references unknown source node").WithNode(e.SourceNodeID)
		}
		if _, ok := ids[e.TargetNodeID]; !ok {
			return nil, NewError(KindWorkflowBuildError, "edge references unknown target node").WithNode(e.TargetNodeID)
		}
		outgoing[e.SourceNodeID] = true
	}

	reachable := b.reachableFrom(b.spec.StartNodeID)
	for id := range ids {
		if !reachable[id] {
			return nil, NewError(KindWorkflowBuildError, "node is unreachable from start node").WithNode(id)
		}
	}

	return &b.spec, nil
}

func (b *WorkflowBuilder) reachableFrom(start string) map[string]bool {
	adj := make(map[string][]string, len(b.spec.Nodes))
	for i := range b.spec.Edges {
		e := &b.spec.Edges[i]
		adj[e.SourceNodeID] = append(adj[e.SourceNodeID], e.TargetNodeID)
	}
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}

// NodeBuilder accumulates a single NodeSpec's fields.
type NodeBuilder struct {
	spec NodeSpec
	err  error
}

// NewNodeBuilder starts a NodeBuilder for a node of the given id/kind.
func NewNodeBuilder(id string, nodeType NodeType) *NodeBuilder {
	return &NodeBuilder{spec: NodeSpec{ID: id, NodeType: nodeType, Params: make(map[string]Value)}}
}

func (n *NodeBuilder) WithName(name string) *NodeBuilder {
	n.spec.Name = name
	return n
}

func (n *NodeBuilder) WithLLMRef(ref string) *NodeBuilder {
	n.spec.LLMRef = ref
	return n
}

func (n *NodeBuilder) WithAgentRef(ref string) *NodeBuilder {
	n.spec.AgentRef = ref
	return n
}

func (n *NodeBuilder) WithToolRef(ref string) *NodeBuilder {
	n.spec.ToolRef = ref
	return n
}

func (n *NodeBuilder) WithPrompt(prompt string) *NodeBuilder {
	n.spec.Prompt = prompt
	return n
}

func (n *NodeBuilder) WithInputSpec(io IOSpec) *NodeBuilder {
	n.spec.InputSpec = &io
	return n
}

func (n *NodeBuilder) WithOutputSpec(io IOSpec) *NodeBuilder {
	n.spec.OutputSpec = &io
	return n
}

func (n *NodeBuilder) WithConfig(cfg NodeConfig) *NodeBuilder {
	n.spec.Config = cfg
	return n
}

func (n *NodeBuilder) WithUserPrompt(cfg UserPromptConfig) *NodeBuilder {
	n.spec.UserPrompt = &cfg
	return n
}

func (n *NodeBuilder) WithDynamicVariables(cfg DynamicVariableConfig) *NodeBuilder {
	n.spec.DynamicVariables = &cfg
	return n
}

// WithParam sets one entry in the node's kind-specific Params map (e.g.
// Loop's "maxIterations", Switch's "switchField").
func (n *NodeBuilder) WithParam(key string, value Value) *NodeBuilder {
	if n.spec.Params == nil {
		n.spec.Params = make(map[string]Value)
	}
	n.spec.Params[key] = value
	return n
}

func (n *NodeBuilder) WithMetadata(key string, value interface{}) *NodeBuilder {
	if n.spec.Metadata == nil {
		n.spec.Metadata = make(map[string]interface{})
	}
	n.spec.Metadata[key] = value
	return n
}

// Spec returns the assembled NodeSpec directly, for callers that want
// to populate a WorkflowSpec.Nodes slice without going through
// WorkflowBuilder.AddNode.
func (n *NodeBuilder) Spec() NodeSpec {
	return n.spec
}

// EdgeBuilder accumulates a single EdgeSpec's fields.
type EdgeBuilder struct {
	spec EdgeSpec
}

// NewEdgeBuilder starts an EdgeBuilder for an edge from source to target.
func NewEdgeBuilder(id, source, target string) *EdgeBuilder {
	return &EdgeBuilder{spec: EdgeSpec{ID: id, SourceNodeID: source, TargetNodeID: target, EdgeType: EdgeDefault}}
}

func (e *EdgeBuilder) WithType(t EdgeType) *EdgeBuilder {
	e.spec.EdgeType = t
	return e
}

func (e *EdgeBuilder) WithCondition(cond ConditionGroup) *EdgeBuilder {
	e.spec.Condition = &cond
	e.spec.EdgeType = EdgeConditional
	return e
}

func (e *EdgeBuilder) WithErrorTypes(kinds ...string) *EdgeBuilder {
	e.spec.ErrorTypes = append(e.spec.ErrorTypes, kinds...)
	e.spec.EdgeType = EdgeError
	return e
}

func (e *EdgeBuilder) WithPriority(p int) *EdgeBuilder {
	e.spec.Priority = p
	return e
}

func (e *EdgeBuilder) WithWeight(w float64) *EdgeBuilder {
	e.spec.Weight = w
	return e
}

func (e *EdgeBuilder) WithTimeoutMs(ms int) *EdgeBuilder {
	e.spec.TimeoutMs = ms
	return e
}

// WithDataMapping sets the edge's dataMapping (target field -> source
// path expression in the $input/$output/$node/$ctx/$workflow grammar),
// consumed by TransformData when the engine routes across this edge.
func (e *EdgeBuilder) WithDataMapping(mapping map[string]string) *EdgeBuilder {
	e.spec.DataMapping = mapping
	return e
}

// Spec returns the assembled EdgeSpec directly.
func (e *EdgeBuilder) Spec() EdgeSpec {
	return e.spec
}

package pipeline

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sort"

	"github.com/kbukum/eradiate-pp/errors"
	"github.com/kbukum/eradiate-pp/logger"
)

// Pipeline is a DAG of named nodes with lazy, cached execution.
type Pipeline struct {
	nodes     map[string]*Node
	graph     *graph
	virtual   map[string]struct{}
	cache     map[string]any
	validate  bool
	log       *logger.Logger
	observers []Observer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithValidation toggles pre/post hooks for the whole pipeline. Enabled by default.
func WithValidation(enabled bool) Option {
	return func(p *Pipeline) { p.validate = enabled }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithObserver registers an observer notified around each node computation.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observers = append(p.observers, o)
		}
	}
}

// New creates an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		nodes:    make(map[string]*Node),
		graph:    newGraph(),
		virtual:  make(map[string]struct{}),
		cache:    make(map[string]any),
		validate: true,
		log:      logger.Get("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Validate reports whether pipeline-level validation is enabled.
func (p *Pipeline) Validate() bool { return p.validate }

// Len returns the number of nodes, virtual inputs excluded.
func (p *Pipeline) Len() int { return len(p.nodes) }

// addUndo records the graph mutations of one AddNode call.
type addUndo struct {
	edges    []Edge
	vertices []string
	virtual  []string
	promoted bool
}

// AddNode inserts a node computed by fn.
//
// Dependencies that are neither nodes nor virtual inputs become new virtual
// inputs. If name is a virtual input it is promoted to a node in place. The
// insertion is rolled back and a CYCLE error returned when it would close a
// cycle. Outputs declared with WithOutputs are added afterwards as nodes
// depending only on name.
func (p *Pipeline) AddNode(name string, fn Func, opts ...NodeOption) (*Pipeline, error) {
	if name == "" {
		return nil, errors.InvalidInput("name", "node name must not be empty")
	}
	if fn == nil {
		return nil, errors.InvalidInput("func", fmt.Sprintf("node %q has no function", name))
	}

	cfg := newNodeConfig(opts)
	if err := cfg.checkDependencies(); err != nil {
		return nil, err
	}
	derived, err := cfg.outputs.normalize(name)
	if err != nil {
		return nil, err
	}

	if _, exists := p.nodes[name]; exists {
		return nil, errors.NamingConflict(name)
	}

	undo := addUndo{}
	if _, isVirtual := p.virtual[name]; isVirtual {
		delete(p.virtual, name)
		undo.promoted = true
	} else if p.graph.addVertex(name) {
		undo.vertices = append(undo.vertices, name)
	}

	for _, dep := range cfg.deps {
		if dep == name {
			continue
		}
		if _, ok := p.nodes[dep]; ok {
			continue
		}
		if _, ok := p.virtual[dep]; ok {
			continue
		}
		p.virtual[dep] = struct{}{}
		undo.virtual = append(undo.virtual, dep)
		if p.graph.addVertex(dep) {
			undo.vertices = append(undo.vertices, dep)
		}
	}

	metadata := cfg.metadata
	if metadata == nil {
		metadata = make(map[string]any)
	}
	p.nodes[name] = &Node{
		Name:         name,
		Func:         fn,
		Dependencies: slices.Clone(cfg.deps),
		Description:  cfg.description,
		PreFuncs:     cfg.pre,
		PostFuncs:    cfg.post,
		Validate:     cfg.validate,
		Metadata:     metadata,
	}

	for _, dep := range cfg.deps {
		if p.graph.addEdge(dep, name) {
			undo.edges = append(undo.edges, Edge{From: dep, To: name})
		}
	}

	if p.graph.reaches(name, name) {
		p.rollback(name, undo)
		return nil, errors.Cycle(name)
	}

	if p.log.DebugEnabled() {
		p.log.Debug("node added", logger.Fields(
			logger.FieldNode, name,
			"dependencies", cfg.deps,
			"promoted", undo.promoted,
			"new_virtual_inputs", undo.virtual,
		))
	}

	for _, d := range derived {
		if _, err := p.AddNode(d.name, d.fn, DependsOn(name)); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// rollback reverts a failed insertion so the graph is identical to its
// state before AddNode was called.
func (p *Pipeline) rollback(name string, undo addUndo) {
	for _, e := range undo.edges {
		p.graph.removeEdge(e.From, e.To)
	}
	delete(p.nodes, name)
	for _, v := range undo.virtual {
		delete(p.virtual, v)
	}
	for _, v := range undo.vertices {
		p.graph.removeVertex(v)
	}
	if undo.promoted {
		p.virtual[name] = struct{}{}
	}
}

// MustAddNode is like AddNode but panics on error.
// It is intended for static pipeline construction.
func (p *Pipeline) MustAddNode(name string, fn Func, opts ...NodeOption) *Pipeline {
	if _, err := p.AddNode(name, fn, opts...); err != nil {
		panic(err)
	}
	return p
}

// RemoveNode deletes a node nothing depends on. Virtual inputs left without
// dependents are removed as well.
func (p *Pipeline) RemoveNode(name string) (*Pipeline, error) {
	node, ok := p.nodes[name]
	if !ok {
		return nil, errors.NotFound("node", name)
	}
	if dependents := p.graph.successors(name); len(dependents) > 0 {
		return nil, errors.DependentsExist(name, dependents)
	}

	delete(p.nodes, name)
	delete(p.cache, name)
	p.graph.removeVertex(name)

	var collected []string
	for _, dep := range node.Dependencies {
		if _, isVirtual := p.virtual[dep]; !isVirtual {
			continue
		}
		if len(p.graph.successors(dep)) == 0 {
			delete(p.virtual, dep)
			p.graph.removeVertex(dep)
			collected = append(collected, dep)
		}
	}

	p.log.Debug("node removed", logger.Fields(logger.FieldNode, name, "removed_virtual_inputs", collected))
	return p, nil
}

// ExtractSubgraph returns a new pipeline holding outputs and all their
// ancestors. Nodes keep their functions, dependencies, hooks and metadata;
// the validation flag, logger and observers are carried over.
func (p *Pipeline) ExtractSubgraph(outputs []string) (*Pipeline, error) {
	for _, out := range outputs {
		if _, ok := p.nodes[out]; !ok {
			return nil, errors.NotFound("node", out)
		}
	}

	keep := p.graph.ancestors(outputs...)
	for _, out := range outputs {
		keep[out] = struct{}{}
	}

	sub := New(WithValidation(p.validate), WithLogger(p.log))
	sub.observers = slices.Clone(p.observers)

	order := p.topoOrder()
	for _, name := range order {
		if _, ok := keep[name]; !ok {
			continue
		}
		if _, isVirtual := p.virtual[name]; isVirtual {
			sub.virtual[name] = struct{}{}
			sub.graph.addVertex(name)
		}
	}
	for _, name := range order {
		if _, ok := keep[name]; !ok {
			continue
		}
		node, ok := p.nodes[name]
		if !ok {
			continue
		}
		c := node.clone()
		if _, err := sub.AddNode(c.Name, c.Func,
			DependsOn(c.Dependencies...),
			WithDescription(c.Description),
			WithPreFuncs(c.PreFuncs...),
			WithPostFuncs(c.PostFuncs...),
			WithNodeValidation(c.Validate),
			WithMetadata(c.Metadata),
		); err != nil {
			return nil, errors.Internal(fmt.Sprintf("copying node %q into subgraph", name), err)
		}
	}
	return sub, nil
}

// GetNode returns the live node so that callers can enrich its metadata.
func (p *Pipeline) GetNode(name string) (*Node, error) {
	node, ok := p.nodes[name]
	if !ok {
		return nil, errors.NotFound("node", name)
	}
	return node, nil
}

// ListNodes returns every vertex, virtual inputs included, in topological order.
func (p *Pipeline) ListNodes() []string {
	return p.topoOrder()
}

// GetVirtualInputs returns the virtual input names, sorted.
func (p *Pipeline) GetVirtualInputs() []string {
	names := make([]string, 0, len(p.virtual))
	for name := range p.virtual {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsVirtualInput reports whether name is a virtual input.
func (p *Pipeline) IsVirtualInput(name string) bool {
	_, ok := p.virtual[name]
	return ok
}

// GetNodesByMetadata returns the nodes whose metadata holds every key of
// query with an equal value, in topological order. An empty query matches
// every node.
func (p *Pipeline) GetNodesByMetadata(query map[string]any) []string {
	var matches []string
	for _, name := range p.topoOrder() {
		node, ok := p.nodes[name]
		if !ok {
			continue
		}
		if metadataMatches(node.Metadata, query) {
			matches = append(matches, name)
		}
	}
	return matches
}

func metadataMatches(md, query map[string]any) bool {
	for k, want := range query {
		got, ok := md[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// Edges returns all dependency edges ordered by the topological position of
// their source.
func (p *Pipeline) Edges() []Edge {
	var edges []Edge
	for _, from := range p.topoOrder() {
		for _, to := range p.graph.successors(from) {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// ClearCache drops every value computed or supplied by a previous execution.
func (p *Pipeline) ClearCache() {
	clear(p.cache)
}

// CachedValues returns a copy of the current cache.
func (p *Pipeline) CachedValues() map[string]any {
	return maps.Clone(p.cache)
}

// leaves returns the nodes without dependents in topological order.
func (p *Pipeline) leaves() []string {
	var out []string
	for _, name := range p.topoOrder() {
		if _, ok := p.nodes[name]; ok && len(p.graph.successors(name)) == 0 {
			out = append(out, name)
		}
	}
	return out
}

// topoOrder returns the topological order of all vertices. The graph is
// acyclic by construction.
func (p *Pipeline) topoOrder() []string {
	order, _ := p.graph.topoSort()
	return order
}

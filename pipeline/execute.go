package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/eradiate-pp/errors"
	"github.com/kbukum/eradiate-pp/logger"
)

// Execute computes outputs, or every leaf node when outputs is nil.
//
// Keys of inputs naming a node bypass it with the given value. Keys naming a
// virtual input supply it. Any other key is rejected. The cache is reset at
// the start of each call and seeded with inputs; each node then runs at most
// once. Errors returned by node functions and hooks are passed through
// unchanged.
func (p *Pipeline) Execute(outputs []string, inputs map[string]any) (map[string]any, error) {
	return p.ExecuteContext(context.Background(), outputs, inputs)
}

// ExecuteContext is Execute with a context carried to observers and logs.
// The context is not checked for cancellation.
func (p *Pipeline) ExecuteContext(ctx context.Context, outputs []string, inputs map[string]any) (map[string]any, error) {
	outputs, err := p.resolveOutputs(outputs)
	if err != nil {
		return nil, err
	}

	bypass, supplied, err := p.partitionInputs(inputs)
	if err != nil {
		return nil, err
	}

	required := p.requiredVirtualInputs(outputs, bypass)
	var missing []string
	for name := range required {
		if _, ok := supplied[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.MissingInputs(missing)
	}

	if err := p.checkReachable(outputs, bypass, supplied); err != nil {
		return nil, err
	}

	p.cache = make(map[string]any, len(inputs))
	for k, v := range inputs {
		p.cache[k] = v
	}

	runID := uuid.NewString()
	ctx = logger.ContextWithRunID(ctx, runID)
	ctx = p.runStarted(ctx, runID, outputs)
	log := p.log.WithContext(ctx)
	log.Debug("execution started", logger.Fields(
		"outputs", outputs,
		"bypassed", len(bypass),
		"virtual_inputs", len(supplied),
	))

	start := time.Now()
	for _, out := range outputs {
		if err := p.compute(ctx, out); err != nil {
			p.runFinished(ctx, runID, time.Since(start), err)
			log.Debug("execution failed", logger.MergeWithError(logger.DurationFields("execute", time.Since(start)), err))
			return nil, err
		}
	}
	p.runFinished(ctx, runID, time.Since(start), nil)
	log.Debug("execution finished", logger.DurationFields("execute", time.Since(start)))

	result := make(map[string]any, len(outputs))
	for _, out := range outputs {
		result[out] = p.cache[out]
	}
	return result, nil
}

// GetRequiredInputs returns, sorted, the virtual inputs that must be supplied
// to compute outputs (every leaf when nil) given inputs. Only the keys of
// inputs naming nodes are considered; they count as bypassed.
func (p *Pipeline) GetRequiredInputs(outputs []string, inputs map[string]any) ([]string, error) {
	outputs, err := p.resolveOutputs(outputs)
	if err != nil {
		return nil, err
	}
	bypass := make(map[string]struct{})
	for k := range inputs {
		if _, ok := p.nodes[k]; ok {
			bypass[k] = struct{}{}
		}
	}
	required := p.requiredVirtualInputs(outputs, bypass)
	names := make([]string, 0, len(required))
	for name := range required {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (p *Pipeline) resolveOutputs(outputs []string) ([]string, error) {
	if outputs == nil {
		return p.leaves(), nil
	}
	for _, out := range outputs {
		if _, ok := p.nodes[out]; !ok {
			return nil, errors.NotFound("node", out)
		}
	}
	return outputs, nil
}

// partitionInputs splits inputs into bypassed nodes and virtual input values.
func (p *Pipeline) partitionInputs(inputs map[string]any) (bypass, supplied map[string]struct{}, err error) {
	bypass = make(map[string]struct{})
	supplied = make(map[string]struct{})
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch {
		case p.nodes[k] != nil:
			bypass[k] = struct{}{}
		case p.IsVirtualInput(k):
			supplied[k] = struct{}{}
		default:
			return nil, nil, errors.UnknownInputKey(k)
		}
	}
	return bypass, supplied, nil
}

// requiredVirtualInputs walks backwards from each output and collects the
// virtual inputs reached. The walk never continues past a bypassed node,
// except for a requested output itself.
func (p *Pipeline) requiredVirtualInputs(outputs []string, bypass map[string]struct{}) map[string]struct{} {
	required := make(map[string]struct{})
	expanded := make(map[string]struct{})

	var stack []string
	expand := func(name string) {
		if _, done := expanded[name]; done {
			return
		}
		expanded[name] = struct{}{}
		stack = append(stack, p.graph.predecessors(name)...)
	}

	for _, out := range outputs {
		expand(out)
	}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.IsVirtualInput(v) {
			required[v] = struct{}{}
			continue
		}
		if _, bypassed := bypass[v]; bypassed {
			continue
		}
		expand(v)
	}
	return required
}

// checkReachable verifies that every output has, in its ancestry or itself, a
// supplied virtual input, a bypassed node or a node without dependencies.
func (p *Pipeline) checkReachable(outputs []string, bypass, supplied map[string]struct{}) error {
	for _, out := range outputs {
		lineage := p.graph.ancestors(out)
		lineage[out] = struct{}{}

		rooted := false
		var unresolved []string
		for name := range lineage {
			_, isBypassed := bypass[name]
			_, isSupplied := supplied[name]
			node, isNode := p.nodes[name]
			if isBypassed || isSupplied || (isNode && len(node.Dependencies) == 0) {
				rooted = true
				break
			}
			if p.IsVirtualInput(name) {
				unresolved = append(unresolved, name)
			}
		}
		if !rooted {
			return errors.Unreachable(out, unresolved)
		}
	}
	return nil
}

// compute evaluates target and whatever it needs that is not cached, using an
// explicit stack so that deep graphs do not grow the goroutine stack.
func (p *Pipeline) compute(ctx context.Context, target string) error {
	type frame struct {
		name     string
		expanded bool
	}

	stack := []frame{{name: target}}
	for len(stack) > 0 {
		top := len(stack) - 1
		name := stack[top].name
		if _, cached := p.cache[name]; cached {
			stack = stack[:top]
			continue
		}

		node, ok := p.nodes[name]
		if !ok {
			return errors.MissingInputs([]string{name})
		}

		if !stack[top].expanded {
			stack[top].expanded = true
			for i := len(node.Dependencies) - 1; i >= 0; i-- {
				dep := node.Dependencies[i]
				if _, cached := p.cache[dep]; !cached {
					stack = append(stack, frame{name: dep})
				}
			}
			continue
		}

		stack = stack[:top]
		if err := p.run(ctx, node); err != nil {
			return err
		}
	}
	return nil
}

// run computes one node whose dependencies are all cached.
func (p *Pipeline) run(ctx context.Context, node *Node) error {
	in := make(Inputs, len(node.Dependencies))
	for _, dep := range node.Dependencies {
		in[dep] = p.cache[dep]
	}

	nodeCtx := p.nodeStarted(ctx, node.Name)
	start := time.Now()
	out, err := invoke(node, in, node.hooksEnabled(p.validate))
	p.nodeFinished(nodeCtx, node.Name, time.Since(start), err)
	if err != nil {
		return err
	}

	p.cache[node.Name] = out
	return nil
}

func invoke(node *Node, in Inputs, hooks bool) (any, error) {
	if hooks {
		for _, pre := range node.PreFuncs {
			if err := pre(in); err != nil {
				return nil, err
			}
		}
	}
	out, err := node.Func(in)
	if err != nil {
		return nil, err
	}
	if hooks {
		for _, post := range node.PostFuncs {
			if err := post(out); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

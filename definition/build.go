package definition

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/eradiate-pp/errors"
	"github.com/kbukum/eradiate-pp/logger"
	"github.com/kbukum/eradiate-pp/pipeline"
)

// Build resolves the includes of def and adds every node to a new
// pipeline, included nodes first, each document in order.
//
// The Validate flag of def, when set, overrides the one given in opts;
// flags of included documents are ignored. Errors raised by the pipeline
// while adding nodes, such as CYCLE or NAMING_CONFLICT, are returned
// unchanged.
func Build(def *Definition, registry *Registry, loader Loader, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	if def == nil {
		return nil, errors.InvalidInput("definition", "definition must not be nil")
	}
	if registry == nil {
		return nil, errors.InvalidInput("registry", "registry must not be nil")
	}
	r, err := flatten(def, loader)
	if err != nil {
		return nil, err
	}

	opts = slices.Clone(opts)
	if def.Validate != nil {
		opts = append(opts, pipeline.WithValidation(*def.Validate))
	}
	p := pipeline.New(opts...)

	for _, spec := range r.specs {
		c, ok := registry.Get(spec.Component)
		if !ok {
			return nil, errors.NotFound("component", spec.Component).WithDetail("node", spec.NodeName())
		}
		if _, err := p.AddNode(spec.NodeName(), c.Func, nodeOptions(spec, c)...); err != nil {
			return nil, err
		}
	}

	logger.Get("definition").Debug("pipeline built", logger.Fields(
		"definition", def.Name,
		"documents", r.order,
		"nodes", p.Len(),
		"virtual_inputs", p.GetVirtualInputs(),
	))
	return p, nil
}

// Flatten resolves the includes of def and returns every node spec in the
// order Build adds them.
func Flatten(def *Definition, loader Loader) ([]NodeSpec, error) {
	if def == nil {
		return nil, errors.InvalidInput("definition", "definition must not be nil")
	}
	r, err := flatten(def, loader)
	if err != nil {
		return nil, err
	}
	return r.specs, nil
}

func flatten(def *Definition, loader Loader) (*resolver, error) {
	if err := def.Check(); err != nil {
		return nil, err
	}
	r := &resolver{loader: loader, resolved: make(map[string]struct{})}
	if err := r.resolve(def.Name, def); err != nil {
		return nil, err
	}
	return r, nil
}

func nodeOptions(spec NodeSpec, c Component) []pipeline.NodeOption {
	desc := spec.Description
	if desc == "" {
		desc = c.Description
	}
	opts := []pipeline.NodeOption{
		pipeline.DependsOn(spec.DependsOn...),
		pipeline.WithDescription(desc),
		pipeline.WithPreFuncs(c.PreFuncs...),
		pipeline.WithPostFuncs(c.PostFuncs...),
	}
	if spec.Validate != nil {
		opts = append(opts, pipeline.WithNodeValidation(*spec.Validate))
	}
	if spec.Metadata != nil {
		opts = append(opts, pipeline.WithMetadata(spec.Metadata))
	}
	if !spec.Outputs.IsZero() {
		opts = append(opts, pipeline.WithOutputs(spec.Outputs.outputs()))
	}
	return opts
}

// resolver flattens a definition and its includes into node specs.
type resolver struct {
	loader   Loader
	stack    []string
	resolved map[string]struct{}
	order    []string
	specs    []NodeSpec
}

func (r *resolver) resolve(name string, d *Definition) error {
	r.stack = append(r.stack, name)
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()

	for _, inc := range d.Includes {
		if slices.Contains(r.stack, inc) {
			path := append(slices.Clone(r.stack), inc)
			return errors.New(errors.ErrCodeCycle, "include cycle: "+strings.Join(path, " -> ")).
				WithDetail("path", path)
		}
		if _, done := r.resolved[inc]; done {
			continue
		}
		if r.loader == nil {
			return errors.InvalidInput("includes",
				fmt.Sprintf("definition %q includes %q but no loader is configured", name, inc))
		}
		sub, err := r.loader.Load(inc)
		if err != nil {
			return err
		}
		if err := sub.Check(); err != nil {
			return err
		}
		if err := r.resolve(inc, sub); err != nil {
			return err
		}
	}

	r.specs = append(r.specs, d.Nodes...)
	r.resolved[name] = struct{}{}
	r.order = append(r.order, name)
	return nil
}

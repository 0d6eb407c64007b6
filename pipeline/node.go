package pipeline

import (
	"fmt"
	"maps"

	"github.com/kbukum/eradiate-pp/errors"
)

// Inputs holds the values handed to a node function, keyed by dependency name.
type Inputs map[string]any

// Get returns the value of the named dependency.
func (in Inputs) Get(name string) (any, error) {
	v, ok := in[name]
	if !ok {
		return nil, errors.InvalidInput(name, fmt.Sprintf("dependency %q not present in inputs", name))
	}
	return v, nil
}

// Value returns the named dependency as T.
// A nil value yields the zero value of T.
func Value[T any](in Inputs, name string) (T, error) {
	var zero T
	raw, err := in.Get(name)
	if err != nil {
		return zero, err
	}
	if raw == nil {
		return zero, nil
	}
	v, ok := raw.(T)
	if !ok {
		return zero, errors.InvalidInput(name, fmt.Sprintf("dependency %q: expected %T, got %T", name, zero, raw))
	}
	return v, nil
}

// Func computes a node value from its dependencies.
type Func func(in Inputs) (any, error)

// PreFunc inspects the assembled inputs before a node runs.
type PreFunc func(in Inputs) error

// PostFunc inspects a node result after it has been computed.
type PostFunc func(out any) error

// Node is a named computation in a Pipeline.
type Node struct {
	Name         string
	Func         Func
	Dependencies []string
	Description  string
	PreFuncs     []PreFunc
	PostFuncs    []PostFunc
	// Validate enables PreFuncs and PostFuncs for this node. Hooks run only
	// when the owning Pipeline has validation enabled as well.
	Validate bool
	// Metadata is free-form and only used for discovery.
	Metadata map[string]any
}

// hooksEnabled reports whether hooks run under the given pipeline flag.
func (n *Node) hooksEnabled(pipelineValidate bool) bool {
	return pipelineValidate && n.Validate
}

// clone returns a copy that shares functions but owns its slices and metadata.
func (n *Node) clone() *Node {
	c := *n
	c.Dependencies = append([]string(nil), n.Dependencies...)
	c.PreFuncs = append([]PreFunc(nil), n.PreFuncs...)
	c.PostFuncs = append([]PostFunc(nil), n.PostFuncs...)
	c.Metadata = maps.Clone(n.Metadata)
	return &c
}

// NodeOption configures a node passed to AddNode.
type NodeOption func(*nodeConfig)

type nodeConfig struct {
	deps        []string
	description string
	pre         []PreFunc
	post        []PostFunc
	validate    bool
	metadata    map[string]any
	outputs     Outputs
}

func newNodeConfig(opts []NodeOption) *nodeConfig {
	cfg := &nodeConfig{validate: true}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// checkDependencies rejects empty and repeated dependency names.
func (c *nodeConfig) checkDependencies() error {
	seen := make(map[string]struct{}, len(c.deps))
	for _, dep := range c.deps {
		if dep == "" {
			return errors.InvalidInput("dependencies", "dependency names must not be empty")
		}
		if _, dup := seen[dep]; dup {
			return errors.InvalidInput("dependencies", fmt.Sprintf("dependency %q listed more than once", dep))
		}
		seen[dep] = struct{}{}
	}
	return nil
}

// DependsOn sets the node dependencies, in the order they are listed.
func DependsOn(names ...string) NodeOption {
	return func(c *nodeConfig) { c.deps = append(c.deps, names...) }
}

// WithDescription sets a human-readable description.
func WithDescription(desc string) NodeOption {
	return func(c *nodeConfig) { c.description = desc }
}

// WithPreFuncs appends validation hooks that run before the node function.
func WithPreFuncs(fns ...PreFunc) NodeOption {
	return func(c *nodeConfig) { c.pre = append(c.pre, fns...) }
}

// WithPostFuncs appends validation hooks that run on the node result.
func WithPostFuncs(fns ...PostFunc) NodeOption {
	return func(c *nodeConfig) { c.post = append(c.post, fns...) }
}

// WithNodeValidation toggles hooks for this node. Enabled by default.
func WithNodeValidation(enabled bool) NodeOption {
	return func(c *nodeConfig) { c.validate = enabled }
}

// WithMetadata merges tags into the node metadata.
func WithMetadata(md map[string]any) NodeOption {
	return func(c *nodeConfig) {
		if c.metadata == nil {
			c.metadata = make(map[string]any, len(md))
		}
		maps.Copy(c.metadata, md)
	}
}

// WithOutputs declares derived nodes extracted from the node result.
func WithOutputs(outputs Outputs) NodeOption {
	return func(c *nodeConfig) { c.outputs = outputs }
}

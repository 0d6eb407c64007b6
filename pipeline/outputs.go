package pipeline

import (
	"fmt"
	"slices"

	"github.com/kbukum/eradiate-pp/errors"
	"github.com/kbukum/eradiate-pp/util"
)

// Extractor derives a value from a map-valued source result.
type Extractor func(result map[string]any) (any, error)

// Output declares one derived node. Exactly one of Key or Extract is used:
// Extract wins when set, otherwise the value under Key (or Name when Key is
// empty) is taken from the source result.
type Output struct {
	Name    string
	Key     string
	Extract Extractor
}

// Outputs is an ordered list of derived node declarations.
type Outputs []Output

// Field declares a derived node that reads key from the source result.
func Field(name, key string) Output {
	return Output{Name: name, Key: key}
}

// Derive declares a derived node computed by fn from the source result.
func Derive(name string, fn Extractor) Output {
	return Output{Name: name, Extract: fn}
}

// Fields declares derived nodes named after the result keys they read.
func Fields(names ...string) Outputs {
	out := make(Outputs, 0, len(names))
	for _, n := range names {
		out = append(out, Field(n, n))
	}
	return out
}

// Keys declares derived nodes from a derived-name to result-key mapping.
// Nodes are added in sorted name order.
func Keys(m map[string]string) Outputs {
	out := make(Outputs, 0, len(m))
	for _, name := range util.SortedKeys(m) {
		out = append(out, Field(name, m[name]))
	}
	return out
}

// Extractors declares derived nodes from a derived-name to extractor mapping.
// Nodes are added in sorted name order.
func Extractors(m map[string]Extractor) Outputs {
	out := make(Outputs, 0, len(m))
	for _, name := range util.SortedKeys(m) {
		out = append(out, Derive(name, m[name]))
	}
	return out
}

// derivedNode is a normalized Output bound to its source.
type derivedNode struct {
	name string
	fn   Func
}

// normalize checks the declarations and builds the derived node functions
// before the source node is inserted.
func (o Outputs) normalize(source string) ([]derivedNode, error) {
	if len(o) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(o))
	nodes := make([]derivedNode, 0, len(o))
	for _, out := range o {
		if out.Name == "" {
			return nil, errors.InvalidInput("outputs", fmt.Sprintf("node %q: derived output name must not be empty", source))
		}
		if out.Name == source {
			return nil, errors.InvalidInput("outputs", fmt.Sprintf("node %q: derived output cannot reuse the source name", source))
		}
		if slices.Contains(names, out.Name) {
			return nil, errors.InvalidInput("outputs", fmt.Sprintf("node %q: derived output %q declared more than once", source, out.Name))
		}
		names = append(names, out.Name)

		extract := out.Extract
		if extract == nil {
			extract = keyExtractor(out.Name, out.keyOrName())
		}
		nodes = append(nodes, derivedNode{name: out.Name, fn: sourceFunc(source, out.Name, extract)})
	}
	return nodes, nil
}

func (o Output) keyOrName() string {
	if o.Key == "" {
		return o.Name
	}
	return o.Key
}

func keyExtractor(name, key string) Extractor {
	return func(result map[string]any) (any, error) {
		v, ok := result[key]
		if !ok {
			return nil, errors.InvalidResult(name, fmt.Sprintf("source result has no key %q", key))
		}
		return v, nil
	}
}

// sourceFunc adapts an Extractor into a node function depending only on source.
func sourceFunc(source, name string, extract Extractor) Func {
	return func(in Inputs) (any, error) {
		result, ok := in[source].(map[string]any)
		if !ok {
			return nil, errors.InvalidResult(name,
				fmt.Sprintf("source %q returned %T, expected map[string]any", source, in[source]))
		}
		return extract(result)
	}
}

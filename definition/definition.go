package definition

import (
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/eradiate-pp/errors"
	"github.com/kbukum/eradiate-pp/pipeline"
	"github.com/kbukum/eradiate-pp/util"
	"github.com/kbukum/eradiate-pp/validation"
)

// Definition is a named, composable pipeline document.
type Definition struct {
	Name     string   `yaml:"name" validate:"required"`
	Includes []string `yaml:"includes,omitempty" validate:"unique,dive,required"`
	// Validate, when set, overrides the pipeline validation flag.
	Validate *bool      `yaml:"validate,omitempty"`
	Nodes    []NodeSpec `yaml:"nodes" validate:"dive"`
}

// NodeSpec describes one node of a Definition.
type NodeSpec struct {
	// Name defaults to Component when empty.
	Name        string         `yaml:"name,omitempty" validate:"omitempty,identifier"`
	Component   string         `yaml:"component" validate:"required"`
	DependsOn   []string       `yaml:"depends_on,omitempty" validate:"unique,dive,required"`
	Description string         `yaml:"description,omitempty"`
	Outputs     OutputSpec     `yaml:"outputs,omitempty"`
	Metadata    map[string]any `yaml:"metadata,omitempty"`
	Validate    *bool          `yaml:"validate,omitempty"`
}

// NodeName returns the name the node is added under.
func (s NodeSpec) NodeName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Component
}

// OutputSpec lists derived nodes. In YAML it is either a sequence of
// result keys, each becoming a node of the same name, or a mapping from
// node name to result key.
type OutputSpec struct {
	Names []string
	Keys  map[string]string
}

// UnmarshalYAML accepts the sequence and mapping forms.
func (o *OutputSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		return value.Decode(&o.Names)
	case yaml.MappingNode:
		return value.Decode(&o.Keys)
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			return nil
		}
	}
	return fmt.Errorf("line %d: outputs must be a list or a mapping", value.Line)
}

// MarshalYAML writes whichever form is set.
func (o OutputSpec) MarshalYAML() (any, error) {
	if o.Keys != nil {
		return o.Keys, nil
	}
	return o.Names, nil
}

// IsZero reports whether no outputs are declared.
func (o OutputSpec) IsZero() bool {
	return len(o.Names) == 0 && len(o.Keys) == 0
}

func (o OutputSpec) outputs() pipeline.Outputs {
	if len(o.Keys) > 0 {
		return pipeline.Keys(o.Keys)
	}
	return pipeline.Fields(o.Names...)
}

// Check validates the document structure. Includes and components are not
// resolved, and graph errors such as cycles are left to Build.
func (d *Definition) Check() error {
	if err := validation.Validate(d); err != nil {
		return err
	}

	v := validation.New()
	for i, spec := range d.Nodes {
		field := fmt.Sprintf("nodes[%d]", i)
		v.Identifier(field+".name", spec.NodeName())
		for _, out := range util.SortedKeys(spec.Outputs.Keys) {
			v.Identifier(field+".outputs", out)
		}
		for _, out := range spec.Outputs.Names {
			v.Identifier(field+".outputs", out)
		}
		v.Unique(field+".outputs", spec.Outputs.Names)
	}
	return v.Validate()
}

// Parse decodes a YAML document and checks its structure.
func Parse(data []byte) (*Definition, error) {
	return parse(data, "")
}

func parse(data []byte, defaultName string) (*Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "parsing pipeline definition").WithCause(err)
	}
	if d.Name == "" {
		d.Name = defaultName
	}
	if err := d.Check(); err != nil {
		return nil, err
	}
	return &d, nil
}

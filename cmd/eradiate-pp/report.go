package main

import (
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/eradiate-pp/pipeline"
	"github.com/kbukum/eradiate-pp/postproc"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatYAML = "yaml"
)

type graphReport struct {
	Name          string           `yaml:"name,omitempty"`
	Config        *postproc.Config `yaml:"config,omitempty"`
	Validate      bool             `yaml:"validate"`
	VirtualInputs []string         `yaml:"virtual_inputs"`
	Nodes         []nodeReport     `yaml:"nodes"`
	FinalOutputs  []string         `yaml:"final_outputs,omitempty"`
}

type nodeReport struct {
	Name        string         `yaml:"name"`
	DependsOn   []string       `yaml:"depends_on,omitempty"`
	Description string         `yaml:"description,omitempty"`
	Metadata    map[string]any `yaml:"metadata,omitempty"`
}

func newGraphReport(p *pipeline.Pipeline) graphReport {
	r := graphReport{
		Validate:      p.Validate(),
		VirtualInputs: p.GetVirtualInputs(),
	}
	for _, name := range p.ListNodes() {
		node, err := p.GetNode(name)
		if err != nil {
			continue
		}
		md := node.Metadata
		if len(md) == 0 {
			md = nil
		}
		r.Nodes = append(r.Nodes, nodeReport{
			Name:        name,
			DependsOn:   node.Dependencies,
			Description: node.Description,
			Metadata:    md,
		})
	}
	return r
}

// writeGraph prints p as a text summary or as a YAML report.
func writeGraph(w io.Writer, format string, p *pipeline.Pipeline, report graphReport) error {
	switch format {
	case formatText:
		return p.Summary(w)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q, want %s or %s", format, formatText, formatYAML)
	}
}

func writeLines(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

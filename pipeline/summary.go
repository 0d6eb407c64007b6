package pipeline

import (
	"fmt"
	"io"
	"strings"

	"github.com/kbukum/eradiate-pp/util"
)

// Summary writes a human-readable description of the pipeline structure.
func (p *Pipeline) Summary(w io.Writer) error {
	sw := &summaryWriter{w: w}

	state := "disabled"
	if p.validate {
		state = "enabled"
	}
	sw.printf("Pipeline: %d nodes, %d virtual inputs, validation %s\n", len(p.nodes), len(p.virtual), state)

	if vis := p.GetVirtualInputs(); len(vis) > 0 {
		sw.printf("Virtual inputs: %s\n", strings.Join(vis, ", "))
	}

	sw.printf("Nodes:\n")
	for _, name := range p.topoOrder() {
		node, ok := p.nodes[name]
		if !ok {
			continue
		}
		sw.printf("  %s\n", name)
		if len(node.Dependencies) > 0 {
			sw.printf("    depends on: %s\n", strings.Join(node.Dependencies, ", "))
		}
		if node.Description != "" {
			sw.printf("    description: %s\n", node.Description)
		}
		if len(node.Metadata) > 0 {
			tags := make([]string, 0, len(node.Metadata))
			for _, k := range util.SortedKeys(node.Metadata) {
				tags = append(tags, fmt.Sprintf("%s=%v", k, node.Metadata[k]))
			}
			sw.printf("    metadata: %s\n", strings.Join(tags, ", "))
		}
		if n := len(node.PreFuncs) + len(node.PostFuncs); n > 0 {
			sw.printf("    hooks: %d pre, %d post (active: %t)\n",
				len(node.PreFuncs), len(node.PostFuncs), node.hooksEnabled(p.validate))
		}
	}
	return sw.err
}

// summaryWriter keeps the first write error.
type summaryWriter struct {
	w   io.Writer
	err error
}

func (s *summaryWriter) printf(format string, args ...any) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, args...)
}

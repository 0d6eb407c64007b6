package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/kbukum/eradiate-pp/definition"
	"github.com/kbukum/eradiate-pp/logger"
	"github.com/kbukum/eradiate-pp/observability"
	"github.com/kbukum/eradiate-pp/pipeline"
)

func newCheckCmd(a *app) *cobra.Command {
	var (
		format string
		run    bool
		watch  bool
	)
	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Validate a pipeline definition file",
		Long: `Load a pipeline definition, resolve its includes from the file's directory
and the configured definition directories, and build it with placeholder
components. With --run the placeholder pipeline is executed once and the
node execution counts are printed. With --watch the check is repeated
whenever a definition file in those directories changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !watch {
				return a.check(cmd.OutOrStdout(), args[0], format, run)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, cmd.OutOrStdout(), args[0], format, run)
		},
	}
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text or yaml")
	cmd.Flags().BoolVar(&run, "run", false, "execute the pipeline with placeholder components")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-check when definition files change")
	return cmd
}

func (a *app) check(w io.Writer, path, format string, run bool) error {
	def, err := definition.LoadFile(path)
	if err != nil {
		return err
	}
	loader := definition.NewFileLoader(a.definitionDirs(path)...)

	specs, err := definition.Flatten(def, loader)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector, err := observability.NewNodeCollector(reg)
	if err != nil {
		return err
	}
	p, err := definition.Build(def, placeholderRegistry(specs), loader,
		a.pipelineOptions(pipeline.WithObserver(pipeline.PrometheusObserver(collector)))...)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "definition %q: %d nodes, %d virtual inputs\n",
		def.Name, p.Len(), len(p.GetVirtualInputs())); err != nil {
		return err
	}
	report := newGraphReport(p)
	report.Name = def.Name
	if err := writeGraph(w, format, p, report); err != nil {
		return err
	}
	if !run {
		return nil
	}

	inputs := make(map[string]any)
	for _, vi := range p.GetVirtualInputs() {
		inputs[vi] = vi
	}
	results, err := p.Execute(nil, inputs)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "executed: %d outputs\n", len(results)); err != nil {
		return err
	}
	return writeExecutions(w, reg)
}

// watch checks path, then checks it again after every change to the
// definition directories until ctx is done. Failed checks are reported
// without stopping.
func (a *app) watch(ctx context.Context, w io.Writer, path, format string, run bool) error {
	report := func() {
		if err := a.check(w, path, format, run); err != nil {
			fmt.Fprintf(w, "check failed: %v\n", err)
		}
	}
	report()

	watcher, err := definition.NewWatcher(definition.DefaultDebounce, a.definitionDirs(path)...)
	if err != nil {
		return err
	}
	defer watcher.Close()

	a.log.Info("watching definitions", logger.Fields("file", path))
	return watcher.Run(ctx, func(names []string) {
		fmt.Fprintf(w, "changed: %s\n", strings.Join(names, ", "))
		report()
	})
}

// definitionDirs lists the directory of path followed by the configured
// definition directories.
func (a *app) definitionDirs(path string) []string {
	return append([]string{filepath.Dir(path)}, a.cfg.Pipeline.DefinitionDirs...)
}

// placeholderRegistry registers, for every component used by specs, a
// function returning its inputs together with every result key the specs
// extract from it.
func placeholderRegistry(specs []definition.NodeSpec) *definition.Registry {
	keys := make(map[string][]string)
	for _, s := range specs {
		k := keys[s.Component]
		k = append(k, s.Outputs.Names...)
		for _, key := range s.Outputs.Keys {
			k = append(k, key)
		}
		keys[s.Component] = k
	}

	reg := definition.NewRegistry()
	for component, resultKeys := range keys {
		reg.Register(component, definition.Component{
			Func:        placeholder(component, resultKeys),
			Description: "placeholder for " + component,
		})
	}
	return reg
}

func placeholder(component string, resultKeys []string) pipeline.Func {
	return func(in pipeline.Inputs) (any, error) {
		out := make(map[string]any, len(in)+len(resultKeys))
		for k, v := range in {
			out[k] = v
		}
		for _, k := range resultKeys {
			if _, ok := out[k]; !ok {
				out[k] = component + "." + k
			}
		}
		return out, nil
	}
}

// writeExecutions prints the node execution counter per node and status.
func writeExecutions(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, mf := range families {
		if mf.GetName() != "eradiate_pipeline_node_executions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			lines = append(lines, fmt.Sprintf("  %s %s %.0f", labels["node"], labels["status"], m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	return writeLines(w, lines)
}

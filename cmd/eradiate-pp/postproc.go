package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/eradiate-pp/pipeline"
	"github.com/kbukum/eradiate-pp/postproc"
)

// postprocFlags binds a postproc.Config to command-line flags.
type postprocFlags struct {
	file string
	cfg  postproc.Config
}

func (f *postprocFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.file, "from", "", "read the postprocessing config from a YAML file; flags override it")
	fs.StringVar(&f.cfg.ModeID, "mode", "mono", "Eradiate mode identifier")
	fs.StringVar(&f.cfg.VarName, "var", postproc.VarRadiance, "processed physical variable")
	fs.BoolVar(&f.cfg.MeasureDistant, "distant", false, "the measure is distant")
	fs.BoolVar(&f.cfg.AddViewingAngles, "viewing-angles", false, "the measure provides viewing angles")
	fs.BoolVar(&f.cfg.ApplySpectralResponse, "srf", false, "apply the spectral response function")
	fs.BoolVar(&f.cfg.CalculateVariance, "variance", false, "compute the variance")
	fs.BoolVar(&f.cfg.CalculateStokes, "stokes", false, "compute the Stokes vector")
}

// config returns the file configuration, if any, with explicitly set flags
// applied on top.
func (f *postprocFlags) config(cmd *cobra.Command) (postproc.Config, error) {
	if f.file == "" {
		return f.cfg, nil
	}
	cfg, err := postproc.LoadConfigFile(f.file)
	if err != nil {
		return postproc.Config{}, err
	}
	fs := cmd.Flags()
	overrides := []struct {
		flag string
		set  func()
	}{
		{"mode", func() { cfg.ModeID = f.cfg.ModeID }},
		{"var", func() { cfg.VarName = f.cfg.VarName }},
		{"distant", func() { cfg.MeasureDistant = f.cfg.MeasureDistant }},
		{"viewing-angles", func() { cfg.AddViewingAngles = f.cfg.AddViewingAngles }},
		{"srf", func() { cfg.ApplySpectralResponse = f.cfg.ApplySpectralResponse }},
		{"variance", func() { cfg.CalculateVariance = f.cfg.CalculateVariance }},
		{"stokes", func() { cfg.CalculateStokes = f.cfg.CalculateStokes }},
	}
	for _, o := range overrides {
		if fs.Changed(o.flag) {
			o.set()
		}
	}
	return cfg, nil
}

// build assembles the postprocessing pipeline without a numerical backend.
func (f *postprocFlags) build(cmd *cobra.Command, a *app) (*pipeline.Pipeline, postproc.Config, error) {
	cfg, err := f.config(cmd)
	if err != nil {
		return nil, postproc.Config{}, err
	}
	p, err := postproc.Build(cfg, postproc.UnimplementedLogic{}, a.pipelineOptions()...)
	if err != nil {
		return nil, postproc.Config{}, err
	}
	return p, cfg, nil
}

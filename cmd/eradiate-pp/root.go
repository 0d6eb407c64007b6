package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kbukum/eradiate-pp/config"
	"github.com/kbukum/eradiate-pp/logger"
	"github.com/kbukum/eradiate-pp/observability"
	"github.com/kbukum/eradiate-pp/pipeline"
	"github.com/kbukum/eradiate-pp/version"
)

// app holds the state shared by all commands.
type app struct {
	cfg        Config
	configFile string
	logLevel   string
	log        *logger.Logger
	metrics    *observability.Metrics
	shutdown   []func(context.Context) error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Inspect Eradiate postprocessing pipelines",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close(cmd.Context())
		},
	}
	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default: search standard locations)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(
		newDescribeCmd(a),
		newInputsCmd(a),
		newQueryCmd(a),
		newCheckCmd(a),
		newVersionCmd(),
	)
	return cmd
}

func (a *app) init(ctx context.Context) error {
	if err := config.LoadConfig(appName, &a.cfg, loaderOptions(a.configFile)...); err != nil {
		return err
	}
	if a.cfg.Version == "" {
		a.cfg.Version = version.Get().String()
	}
	if a.logLevel != "" {
		a.cfg.Logging.Level = a.logLevel
	}
	a.cfg.ApplyDefaults()
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	logger.Init(&a.cfg.Logging)
	logger.RegisterDefaults("cli", "pipeline", "postproc", "definition")
	a.log = logger.Get("cli")
	a.log.Debug("configuration loaded", logger.Fields(
		"environment", a.cfg.Environment,
		"validate", a.cfg.Pipeline.Validate,
		"definition_dirs", a.cfg.Pipeline.DefinitionDirs,
	))

	if a.cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, &observability.TracerConfig{
			ServiceName:    a.cfg.Name,
			ServiceVersion: a.cfg.Version,
			Environment:    a.cfg.Environment,
			Endpoint:       a.cfg.Tracing.Endpoint,
			Insecure:       a.cfg.Tracing.Insecure,
			SampleRate:     a.cfg.Tracing.SampleRate,
		})
		if err != nil {
			return err
		}
		a.shutdown = append(a.shutdown, tp.Shutdown)
	}

	if a.cfg.Metrics.Enabled {
		mp, err := observability.InitMeter(ctx, &observability.MeterConfig{
			ServiceName:    a.cfg.Name,
			ServiceVersion: a.cfg.Version,
			Environment:    a.cfg.Environment,
			Endpoint:       a.cfg.Tracing.Endpoint,
			Insecure:       a.cfg.Tracing.Insecure,
			Interval:       a.cfg.Metrics.Interval,
		})
		if err != nil {
			return err
		}
		a.shutdown = append(a.shutdown, mp.Shutdown)
		if a.metrics, err = observability.NewMetrics(observability.Meter(appName)); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) close(ctx context.Context) error {
	for _, fn := range a.shutdown {
		if err := fn(ctx); err != nil {
			a.log.Warn("shutdown failed", logger.Fields("error", err.Error()))
		}
	}
	a.shutdown = nil
	return nil
}

// pipelineOptions applies the pipeline section of the configuration.
func (a *app) pipelineOptions(extra ...pipeline.Option) []pipeline.Option {
	opts := []pipeline.Option{
		pipeline.WithValidation(a.cfg.Pipeline.Validate),
		pipeline.WithLogger(logger.Get("pipeline")),
	}
	if a.cfg.Pipeline.LogNodes {
		opts = append(opts, pipeline.WithObserver(pipeline.LoggingObserver(a.log)))
	}
	if a.cfg.Tracing.Enabled {
		opts = append(opts, pipeline.WithObserver(pipeline.TracingObserver(appName)))
	}
	if a.metrics != nil {
		opts = append(opts, pipeline.WithObserver(pipeline.MetricsObserver(a.metrics)))
	}
	return append(opts, extra...)
}

package main

import (
	"time"

	"github.com/kbukum/eradiate-pp/config"
)

const appName = "eradiate-pp"

// Config is the eradiate-pp configuration file layout.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Pipeline             config.PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Tracing              TracingConfig         `yaml:"tracing" mapstructure:"tracing"`
	Metrics              MetricsConfig         `yaml:"metrics" mapstructure:"metrics"`
}

// TracingConfig enables OTLP export of execution spans.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig enables OTLP export of node and execution metrics. It
// shares the tracing endpoint.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = appName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = "localhost:4318"
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1.0
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = 15 * time.Second
	}
}

func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	return c.Pipeline.Validate()
}

func loaderOptions(configFile string) []config.LoaderOption {
	opts := config.PipelineDefaults("pipeline")
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	return opts
}

package config

import "github.com/kbukum/eradiate-pp/validation"

// PipelineConfig controls how pipelines are built and observed.
type PipelineConfig struct {
	// Validate enables node pre/post hooks. LoadConfig callers should
	// register PipelineDefaults so an absent key reads as true.
	Validate bool `yaml:"validate" mapstructure:"validate"`

	// DefinitionDirs are searched, in order, for named pipeline definitions.
	DefinitionDirs []string `yaml:"definition_dirs" mapstructure:"definition_dirs" validate:"dive,required"`

	// LogNodes logs every node computation at debug level.
	LogNodes bool `yaml:"log_nodes" mapstructure:"log_nodes"`
}

// DefaultDefinitionDir is used when no definition directory is configured.
const DefaultDefinitionDir = "./definitions"

// PipelineDefaults returns the LoadConfig options that give a
// PipelineConfig stored under prefix its default values.
func PipelineDefaults(prefix string) []LoaderOption {
	return []LoaderOption{
		WithDefault(prefix+".validate", true),
	}
}

// ApplyDefaults fills unset fields.
func (c *PipelineConfig) ApplyDefaults() {
	if len(c.DefinitionDirs) == 0 {
		c.DefinitionDirs = []string{DefaultDefinitionDir}
	}
}

// Validate checks the fields after ApplyDefaults.
func (c *PipelineConfig) Validate() error {
	return validation.Validate(c)
}

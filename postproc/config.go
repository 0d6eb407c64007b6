package postproc

import (
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/eradiate-pp/errors"
	"github.com/kbukum/eradiate-pp/validation"
)

// Physical variables with dedicated derived products.
const (
	VarRadiance        = "radiance"
	VarSectorRadiosity = "sector_radiosity"
)

// Config selects the shape of the postprocessing pipeline.
type Config struct {
	// ModeID is the Eradiate mode identifier, e.g. "mono" or "ckd_polarized".
	ModeID         string `yaml:"mode_id" validate:"required,identifier"`
	MeasureDistant bool   `yaml:"measure_distant"`
	// AddViewingAngles adds a node deriving viewing angles from the measure.
	AddViewingAngles bool           `yaml:"add_viewing_angles"`
	VarName          string         `yaml:"var_name" validate:"required,identifier"`
	VarMetadata      map[string]any `yaml:"var_metadata,omitempty"`
	// ApplySpectralResponse enables SRF weighting.
	ApplySpectralResponse bool `yaml:"apply_spectral_response"`
	CalculateVariance     bool `yaml:"calculate_variance"`
	CalculateStokes       bool `yaml:"calculate_stokes"`
}

// IsCKD reports whether the mode uses correlated-k distribution.
func (c Config) IsCKD() bool {
	return strings.HasPrefix(c.ModeID, "ckd")
}

// Validate checks the configuration.
func (c Config) Validate() error {
	return validation.Validate(&c)
}

// Inputs returns the virtual input values derived from the configuration.
// viewing_angles is set to nil when no node computes it.
func (c Config) Inputs() map[string]any {
	in := map[string]any{
		InputModeID:            c.ModeID,
		InputVarName:           c.VarName,
		InputVarMetadata:       c.VarMetadata,
		InputCalculateVariance: c.CalculateVariance,
		InputCalculateStokes:   c.CalculateStokes,
	}
	if !c.AddViewingAngles {
		in[NodeViewingAngles] = nil
	}
	return in
}

// ParseConfig decodes and validates a YAML configuration.
func ParseConfig(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, errors.New(errors.ErrCodeInvalidFormat, "parsing postprocessing config").WithCause(err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadConfigFile reads a YAML configuration from path.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, errors.NotFound("config file", path)
		}
		return Config{}, errors.Internal("reading "+path, err)
	}
	return ParseConfig(data)
}

package reconcile

import (
	"fmt"
	"strings"

	"github.com/invopop/validation"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// RoundingMode determines how values are narrowed to a fixed scale.
type RoundingMode string

// Supported rounding modes.
const (
	// RoundHalfUp rounds half away from zero, also known as commercial rounding.
	RoundHalfUp RoundingMode = "half-up"
	// RoundHalfEven rounds half to the nearest even digit (banker's rounding).
	RoundHalfEven RoundingMode = "half-even"
	// RoundDown truncates towards zero.
	RoundDown RoundingMode = "down"
	// RoundUp rounds away from zero.
	RoundUp RoundingMode = "up"
)

// MaxScale is the widest scale accepted in a configuration.
const MaxScale = 10

// Config holds the numeric rules consumed by every reconciliation step.
// It is owned by the caller and never modified by this package.
type Config struct {
	// RoundingMode applied whenever a value is narrowed.
	RoundingMode RoundingMode `json:"rounding_mode" yaml:"rounding_mode"`
	// OutputScale is the number of decimals of monetary values emitted
	// in the target document.
	OutputScale int32 `json:"output_scale" yaml:"output_scale"`
	// IntermediateScale is used for derived amounts before the final
	// narrowing step.
	IntermediateScale int32 `json:"intermediate_scale" yaml:"intermediate_scale"`
	// PercentageScale is used for derived percentages.
	PercentageScale int32 `json:"percentage_scale" yaml:"percentage_scale"`
}

// DefaultConfig returns commercial rounding with a 2 decimal output scale,
// 4 decimal intermediate scale and 2 decimal percentages.
func DefaultConfig() Config {
	return Config{
		RoundingMode:      RoundHalfUp,
		OutputScale:       2,
		IntermediateScale: 4,
		PercentageScale:   2,
	}
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.RoundingMode,
			validation.Required,
			validation.In(RoundHalfUp, RoundHalfEven, RoundDown, RoundUp),
		),
		validation.Field(&c.OutputScale, validation.Min(0), validation.Max(MaxScale)),
		validation.Field(&c.IntermediateScale,
			validation.Min(c.OutputScale),
			validation.Max(MaxScale),
		),
		validation.Field(&c.PercentageScale, validation.Min(0), validation.Max(MaxScale)),
	)
}

// ParseConfig reads a YAML document on top of the defaults. Keys that are
// not present keep their default value.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing reconcile config: %w", err)
	}
	cfg.RoundingMode = normalizeRoundingMode(cfg.RoundingMode)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid reconcile config: %w", err)
	}
	return cfg, nil
}

// ConfigFromViper builds a configuration from the keys `rounding_mode`,
// `output_scale`, `intermediate_scale` and `percentage_scale`. Use
// viper's Sub method to read them from a nested section.
func ConfigFromViper(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()
	if v == nil {
		return cfg, nil
	}
	if v.IsSet("rounding_mode") {
		cfg.RoundingMode = normalizeRoundingMode(RoundingMode(v.GetString("rounding_mode")))
	}
	if v.IsSet("output_scale") {
		cfg.OutputScale = v.GetInt32("output_scale")
	}
	if v.IsSet("intermediate_scale") {
		cfg.IntermediateScale = v.GetInt32("intermediate_scale")
	}
	if v.IsSet("percentage_scale") {
		cfg.PercentageScale = v.GetInt32("percentage_scale")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid reconcile config: %w", err)
	}
	return cfg, nil
}

func normalizeRoundingMode(m RoundingMode) RoundingMode {
	s := strings.ToLower(strings.TrimSpace(string(m)))
	s = strings.ReplaceAll(s, "_", "-")
	switch s {
	case "commercial", "halfup":
		return RoundHalfUp
	case "bankers", "halfeven":
		return RoundHalfEven
	}
	return RoundingMode(s)
}

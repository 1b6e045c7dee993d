// Package config loads and validates the pipeline configuration from a YAML
// file merged with GRIDSIM_-prefixed environment overrides.
package config

import (
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	gserr "github.com/gridguardian/gridsim/pkg/errors"
	"github.com/gridguardian/gridsim/pkg/models"
)

// FleetConfig sizes the simulated fleet.
type FleetConfig struct {
	Substations            int `mapstructure:"substations" validate:"gt=0"`
	EquipmentPerSubstation int `mapstructure:"equipment_per_substation" validate:"gt=0"`
}

// SimulationConfig controls telemetry generation.
type SimulationConfig struct {
	StartTime        string  `mapstructure:"start_time"` // RFC 3339; generation begins here
	HorizonHours     int     `mapstructure:"horizon_hours" validate:"gt=0"`
	Seed             int64   `mapstructure:"seed"`
	ChunkHours       int     `mapstructure:"chunk_hours" validate:"gt=0"`  // per-unit flush granularity
	Workers          int     `mapstructure:"workers" validate:"gte=0"`     // 0 = GOMAXPROCS
	NoiseScale       float64 `mapstructure:"noise_scale" validate:"gte=0"` // 1.0 = nominal channel noise, 0 = deterministic
	DegradedFraction float64 `mapstructure:"degraded_fraction" validate:"gte=0,lte=1"`
}

// PreprocessConfig controls batch cleaning.
type PreprocessConfig struct {
	MaxFillGapHours int `mapstructure:"max_fill_gap_hours" validate:"gte=0"`
}

// FeatureConfig controls feature derivation.
type FeatureConfig struct {
	RollingWindows []int `mapstructure:"rolling_windows" validate:"min=1,dive,gt=0"` // trailing window lengths, hours

	// Risk thresholds; disjunctive guards fused per record, High before Medium.
	TempHighC          float64 `mapstructure:"temp_high_c"`
	TempMediumC        float64 `mapstructure:"temp_medium_c"`
	AcetyleneHighPPM   float64 `mapstructure:"acetylene_high_ppm"`
	AcetyleneMediumPPM float64 `mapstructure:"acetylene_medium_ppm"`
	VibrationHighMMS   float64 `mapstructure:"vibration_high_mms"`
	VibrationMediumMMS float64 `mapstructure:"vibration_medium_mms"`
}

// SampleConfig controls the stratified dashboard sample.
type SampleConfig struct {
	Size int   `mapstructure:"size" validate:"gte=0"`
	Seed int64 `mapstructure:"seed"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the full pipeline configuration.
type Config struct {
	Fleet      FleetConfig      `mapstructure:"fleet"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Preprocess PreprocessConfig `mapstructure:"preprocess"`
	Features   FeatureConfig    `mapstructure:"features"`
	Sample     SampleConfig     `mapstructure:"sample"`
	Log        LogConfig        `mapstructure:"log"`

	// Envelopes overrides the documented physical bounds per channel name.
	Envelopes map[string][]float64 `mapstructure:"envelopes"`
}

// Load reads configuration from the given path (optional) plus environment
// overrides, applies defaults, and validates the result. No pipeline stage
// runs if Load returns an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("GRIDSIM")

	setDefaults(v)

	// An explicitly named file must exist; running on defaults because of a
	// typoed --config path would silently produce the wrong fleet.
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, gserr.NewConfigurationError("file", "cannot read %s: %v", path, err)
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, gserr.NewConfigurationError("file", "failed to read %s: %v", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, gserr.NewConfigurationError("file", "failed to unmarshal: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("fleet.substations", 5)
	v.SetDefault("fleet.equipment_per_substation", 10)

	v.SetDefault("simulation.start_time", "2023-01-01T00:00:00Z")
	v.SetDefault("simulation.horizon_hours", 17520) // two years, preserves seasonal cycles
	v.SetDefault("simulation.seed", 42)
	v.SetDefault("simulation.chunk_hours", 168)
	v.SetDefault("simulation.workers", 0)
	v.SetDefault("simulation.noise_scale", 1.0)
	v.SetDefault("simulation.degraded_fraction", 0.05)

	v.SetDefault("preprocess.max_fill_gap_hours", 3)

	v.SetDefault("features.rolling_windows", []int{3, 6, 12, 24})
	v.SetDefault("features.temp_high_c", 100.0)
	v.SetDefault("features.temp_medium_c", 85.0)
	v.SetDefault("features.acetylene_high_ppm", 100.0)
	v.SetDefault("features.acetylene_medium_ppm", 50.0)
	v.SetDefault("features.vibration_high_mms", 8.0)
	v.SetDefault("features.vibration_medium_mms", 5.0)

	v.SetDefault("sample.size", 10000)
	v.SetDefault("sample.seed", 42)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// validate checks the struct tags; reported field names follow the
// mapstructure config keys so the message points at the YAML key to fix.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
	})
	return v
}

// Validate fails fast on configuration that would produce a meaningless run:
// the struct-tag ranges first, then the rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if gserr.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			constraint := fe.Tag()
			if p := fe.Param(); p != "" {
				constraint += "=" + p
			}
			field := strings.TrimPrefix(fe.Namespace(), "Config.")
			return gserr.NewConfigurationError(field, "must satisfy %q, got %v", constraint, fe.Value())
		}
		return gserr.NewConfigurationError("config", "validation failed: %v", err)
	}
	return c.validateCustomRules()
}

// validateCustomRules covers the checks with no tag equivalent: the timestamp
// format and the envelope override table.
func (c *Config) validateCustomRules() error {
	if _, err := time.Parse(time.RFC3339, c.Simulation.StartTime); err != nil {
		return gserr.NewConfigurationError("simulation.start_time", "not RFC 3339: %q", c.Simulation.StartTime)
	}
	for name, bounds := range c.Envelopes {
		if _, ok := models.ChannelByName(name); !ok {
			return gserr.NewConfigurationError("envelopes", "unknown channel %q", name)
		}
		if len(bounds) != 2 || bounds[0] >= bounds[1] {
			return gserr.NewConfigurationError("envelopes", "channel %q needs [min, max] with min < max", name)
		}
	}
	return nil
}

// Start returns the parsed simulation start timestamp. Validate must have passed.
func (c *Config) Start() time.Time {
	t, _ := time.Parse(time.RFC3339, c.Simulation.StartTime)
	return t.UTC()
}

// EnvelopeTable materializes the per-channel bounds, applying any overrides on
// top of the documented defaults.
func (c *Config) EnvelopeTable() [models.NumChannels]models.Envelope {
	table := models.DefaultEnvelopes
	for name, bounds := range c.Envelopes {
		if ch, ok := models.ChannelByName(name); ok && len(bounds) == 2 {
			table[ch] = models.Envelope{Min: bounds[0], Max: bounds[1]}
		}
	}
	return table
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gserr "github.com/gridguardian/gridsim/pkg/errors"
	"github.com/gridguardian/gridsim/pkg/models"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Fleet.Substations)
	assert.Equal(t, 10, cfg.Fleet.EquipmentPerSubstation)
	assert.Equal(t, 17520, cfg.Simulation.HorizonHours)
	assert.Equal(t, int64(42), cfg.Simulation.Seed)
	assert.Equal(t, 0.05, cfg.Simulation.DegradedFraction)
	assert.Equal(t, []int{3, 6, 12, 24}, cfg.Features.RollingWindows)
	assert.Equal(t, 100.0, cfg.Features.TempHighC)
	assert.Equal(t, "2023-01-01T00:00:00Z", cfg.Simulation.StartTime)
	assert.False(t, cfg.Start().IsZero())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
fleet:
  substations: 2
  equipment_per_substation: 4
simulation:
  horizon_hours: 48
  seed: 7
features:
  rolling_windows: [3, 12]
envelopes:
  gas_c2h2: [0, 250]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Fleet.Substations)
	assert.Equal(t, 4, cfg.Fleet.EquipmentPerSubstation)
	assert.Equal(t, 48, cfg.Simulation.HorizonHours)
	assert.Equal(t, int64(7), cfg.Simulation.Seed)
	assert.Equal(t, []int{3, 12}, cfg.Features.RollingWindows)

	table := cfg.EnvelopeTable()
	assert.Equal(t, models.Envelope{Min: 0, Max: 250}, table[models.ChGasC2H2])
	// Unoverridden channels keep the documented bounds.
	assert.Equal(t, models.DefaultEnvelopes[models.ChTemperatureTop], table[models.ChTemperatureTop])
}

func TestLoadRejectsMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	var cfgErr *gserr.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "file", cfgErr.Field)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("GRIDSIM_SIMULATION_HORIZON_HOURS", "96")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 96, cfg.Simulation.HorizonHours)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero substations", func(c *Config) { c.Fleet.Substations = 0 }},
		{"negative equipment", func(c *Config) { c.Fleet.EquipmentPerSubstation = -1 }},
		{"zero horizon", func(c *Config) { c.Simulation.HorizonHours = 0 }},
		{"negative horizon", func(c *Config) { c.Simulation.HorizonHours = -24 }},
		{"bad start time", func(c *Config) { c.Simulation.StartTime = "yesterday" }},
		{"negative noise", func(c *Config) { c.Simulation.NoiseScale = -0.5 }},
		{"fraction above one", func(c *Config) { c.Simulation.DegradedFraction = 1.5 }},
		{"no rolling windows", func(c *Config) { c.Features.RollingWindows = nil }},
		{"zero window", func(c *Config) { c.Features.RollingWindows = []int{3, 0} }},
		{"negative sample", func(c *Config) { c.Sample.Size = -1 }},
		{"unknown envelope channel", func(c *Config) { c.Envelopes = map[string][]float64{"bogus": {0, 1}} }},
		{"inverted envelope", func(c *Config) { c.Envelopes = map[string][]float64{"gas_h2": {10, 5}} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var cfgErr *gserr.ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestValidateNamesTheConfigKey(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Simulation.DegradedFraction = 1.5

	var cfgErr *gserr.ConfigurationError
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	assert.Equal(t, "simulation.degraded_fraction", cfgErr.Field)
}

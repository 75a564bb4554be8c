package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ewsite/core/model"
	"github.com/kilianp07/ewsite/core/sizing"
)

const sampleYAML = `
profile:
  path: epp.csv
  decimal_comma: true
machines:
  medium:
    wheel_loader: {battery_kwh: 40, rated_power_kw: 20}
    dumper: {battery_kwh: 40, rated_power_kw: 16}
    excavator: {battery_kwh: 264, rated_power_kw: 120}
  large:
    wheel_loader: {weight_kg: 32150, rated_power_kw: 60}
    dumper: {battery_kwh: 300, rated_power_kw: 50}
    excavator: {weight_kg: 49400, rated_power_kw: 200}
scenarios:
  - name: MED6B150
    size: medium
    chargers: 2
    wheel_loaders: 2
    dumpers: 2
    excavators_battery: 2
  - name: LAR2C150
    size: large
    chargers: 1
    charging_threshold_pct: 20
    excavators_cable: 2
    start_time_s: 21600
store:
  backend: jsonl
  path: runs.jsonl
log:
  level: debug
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "ewsite.yaml", sampleYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	checks := []struct {
		name string
		ok   bool
	}{
		{"profile separator default", cfg.Profile.Separator == ";"},
		{"profile column default", cfg.Profile.Column == "y"},
		{"scenario count", len(cfg.Scenarios) == 2},
		{"workday default", cfg.Scenarios[0].WorkdaySeconds == 32400},
		{"break defaults", cfg.Scenarios[0].Break1Seconds == 7200 && cfg.Scenarios[0].Break2Seconds == 18000},
		{"threshold default", cfg.Scenarios[0].ChargingThresholdPct == 10},
		{"threshold override", cfg.Scenarios[1].ChargingThresholdPct == 20},
		{"store backend", cfg.Store.Backend == "jsonl"},
		{"log level", cfg.Log.Level == "debug"},
		{"export default", cfg.Export.Format == "csv"},
	}
	for _, c := range checks {
		assert.True(t, c.ok, c.name)
	}
	assert.Equal(t, filepath.Join(filepath.Dir(path), "epp.csv"), cfg.Resolve(cfg.Profile.Path))
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "ewsite.json", `{
		"profile": {"ratios": [0.5, 1.0]},
		"machines": {"medium": {"dumper": {"battery_kwh": 40, "rated_power_kw": 16}}},
		"scenarios": [{"name": "S", "size": "medium", "dumpers": 1}]
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	p, err := cfg.LoadProfile()
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "ewsite.yaml", sampleYAML)
	t.Setenv("EW_STORE__BACKEND", "sqlite")
	t.Setenv("EW_LOG__LEVEL", "warn")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadKeepsExplicitZeros(t *testing.T) {
	path := writeConfig(t, "ewsite.yaml", `
profile:
  ratios: [1]
machines:
  medium:
    dumper: {battery_kwh: 40, rated_power_kw: 16}
scenarios:
  - name: ZERO
    size: medium
    chargers: 1
    dumpers: 1
    break1_s: 0
    start_time_s: 0
    charging_threshold_pct: 0
  - name: DEFAULTS
    size: medium
    dumpers: 1
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	zero, ok := cfg.Find("ZERO")
	require.True(t, ok)
	sched := zero.Schedule()
	assert.Equal(t, 0.0, sched.ChargingThreshold)
	assert.Equal(t, int64(0), sched.Break1)
	assert.Equal(t, int64(5*3600), sched.Break2)
	assert.Equal(t, 150.0, sched.ChargingRateKW)
	day := time.Date(2024, 5, 17, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), zero.Origin(day))

	def, ok := cfg.Find("DEFAULTS")
	require.True(t, ok)
	assert.Equal(t, 10.0, def.ChargingThresholdPct)
	assert.Equal(t, int64(2*3600), def.Break1Seconds)
	assert.Equal(t, int64(7*3600), def.StartTimeSeconds)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeConfig(t, "ewsite.toml", "")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateErrors(t *testing.T) {
	base := func() Config {
		c := Config{
			Profile:  ProfileConfig{Ratios: []float64{1}},
			Machines: map[string]SizeClass{"medium": {}},
			Scenarios: []Scenario{
				{Name: "A", Size: "medium", Chargers: 1},
			},
		}
		return c
	}
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no scenarios", func(c *Config) { c.Scenarios = nil }},
		{"duplicate", func(c *Config) { c.Scenarios = append(c.Scenarios, c.Scenarios[0]) }},
		{"unknown size", func(c *Config) { c.Scenarios[0].Size = "huge" }},
		{"negative chargers", func(c *Config) { c.Scenarios[0].Chargers = -1 }},
		{"break outside day", func(c *Config) { c.Scenarios[0].Break2Seconds = 40000 }},
		{"no profile", func(c *Config) { c.Profile.Ratios = nil }},
		{"negative rating", func(c *Config) {
			c.Machines["medium"] = SizeClass{Dumper: MachineClass{BatteryKWh: -1}}
		}},
		{"bad export format", func(c *Config) { c.Export.Format = "pdf" }},
		{"bad store backend", func(c *Config) { c.Store.Backend = "redis" }},
	}
	c := base()
	c.SetDefaults()
	require.NoError(t, c.Validate())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			c.SetDefaults()
			tc.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestScenarioFleetAndSchedule(t *testing.T) {
	path := writeConfig(t, "ewsite.yaml", sampleYAML)
	cfg, err := Load(path)
	require.NoError(t, err)
	est, err := sizing.NewEstimator()
	require.NoError(t, err)

	med, ok := cfg.Find("MED6B150")
	require.True(t, ok)
	fleet := med.Fleet(cfg.Machines[med.Size], est)
	assert.Equal(t, 6, fleet.Total())
	assert.Equal(t, 264.0, fleet.ExcavatorsBattery.BatteryKWh)
	assert.Equal(t, 16.0, fleet.Dumpers.RatedPowerKW)

	sched := med.Schedule()
	assert.InDelta(t, 0.1, sched.ChargingThreshold, 1e-12)
	assert.Equal(t, 150.0, sched.ChargingRateKW)
	assert.Equal(t, int64(1800), sched.BreakDuration)

	lar, ok := cfg.Find("LAR2C150")
	require.True(t, ok)
	lf := lar.Fleet(cfg.Machines[lar.Size], est)
	assert.Equal(t, 2, lf.ExcavatorsCable.Count)
	// cable excavators carry no battery even when a weight is configured
	assert.Zero(t, lf.ExcavatorsCable.BatteryKWh)
	assert.InDelta(t, est.BatteryKWh(model.WheelLoader, 32150), lf.WheelLoaders.BatteryKWh, 1e-9)
	assert.Greater(t, lf.WheelLoaders.BatteryKWh, 0.0)

	_, ok = cfg.Find("missing")
	assert.False(t, ok)
}

func TestScenarioOrigin(t *testing.T) {
	s := Scenario{StartTimeSeconds: 7*3600 + 30*60}
	day := time.Date(2024, 5, 17, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 17, 7, 30, 0, 0, time.UTC), s.Origin(day))
}

func TestLoadProfileFromFile(t *testing.T) {
	path := writeConfig(t, "ewsite.yaml", sampleYAML)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "epp.csv"),
		[]byte("x;y\n0;0,5\n1;1,25\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	p, err := cfg.LoadProfile()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1.25}, p.Ratios())
}

func TestShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "configs", "ewsite.yaml"))
	require.NoError(t, err)
	assert.Len(t, cfg.Scenarios, 12)
	p, err := cfg.LoadProfile()
	require.NoError(t, err)
	assert.Equal(t, 120, p.Len())

	est, err := sizing.NewEstimator()
	require.NoError(t, err)
	s, ok := cfg.Find("LAR4C350")
	require.True(t, ok)
	fleet := s.Fleet(cfg.Machines[s.Size], est)
	assert.Equal(t, 4, fleet.ExcavatorsCable.Count)
	assert.Greater(t, fleet.Dumpers.BatteryKWh, 0.0)
	assert.NoError(t, fleet.Validate())
}

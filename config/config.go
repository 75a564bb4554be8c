package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/ewsite/core/metrics"
	"github.com/kilianp07/ewsite/infra/logger"
	"github.com/kilianp07/ewsite/infra/monitoring"
	"github.com/kilianp07/ewsite/infra/store"
	"github.com/kilianp07/ewsite/pkg/export"
)

// EnvPrefix marks environment variables that override file settings.
// EW_STORE__BACKEND=sqlite sets store.backend.
const EnvPrefix = "EW_"

type Config struct {
	Profile   ProfileConfig           `json:"profile"`
	Machines  map[string]SizeClass    `json:"machines"`
	Scenarios []Scenario              `json:"scenarios"`
	Metrics   metrics.Config          `json:"metrics"`
	Store     store.Config            `json:"store"`
	Log       logger.Config           `json:"log"`
	Export    ExportConfig            `json:"export"`
	Sentry    monitoring.SentryConfig `json:"sentry"`

	// dir is the directory of the loaded file; relative paths resolve against it.
	dir string
}

// ExportConfig selects where and how run telemetry is written.
type ExportConfig struct {
	Dir    string `json:"dir"` // empty disables export
	Format string `json:"format"`
}

// SetDefaults applies sane defaults.
func (c *ExportConfig) SetDefaults() {
	if c.Format == "" {
		c.Format = "csv"
	}
}

// Validate checks the export format.
func (c ExportConfig) Validate() error {
	for _, f := range export.Formats {
		if c.Format == f {
			return nil
		}
	}
	return fmt.Errorf("unknown export format %q", c.Format)
}

// Load reads the configuration file at path, applies EW_ environment
// overrides, then fills defaults and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	if err := applyScenarioDefaults(k); err != nil {
		return nil, fmt.Errorf("scenario defaults: %w", err)
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.dir = filepath.Dir(path)
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Profile.SetDefaults()
	c.Log.SetDefaults()
	c.Export.SetDefaults()
	for i := range c.Scenarios {
		c.Scenarios[i].SetDefaults()
	}
}

// Validate checks every section and cross-references scenarios to size classes.
func (c *Config) Validate() error {
	if err := c.Profile.Validate(); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	for name, sc := range c.Machines {
		if err := sc.Validate(); err != nil {
			return fmt.Errorf("machines.%s: %w", name, err)
		}
	}
	if len(c.Scenarios) == 0 {
		return fmt.Errorf("at least one scenario is required")
	}
	seen := make(map[string]bool)
	for _, s := range c.Scenarios {
		if seen[s.Name] {
			return fmt.Errorf("duplicate scenario %q", s.Name)
		}
		seen[s.Name] = true
		if err := s.Validate(); err != nil {
			return fmt.Errorf("scenario %q: %w", s.Name, err)
		}
		if _, ok := c.Machines[s.Size]; !ok {
			return fmt.Errorf("scenario %q: unknown size class %q", s.Name, s.Size)
		}
	}
	return nil
}

// Find returns the scenario with the given name.
func (c *Config) Find(name string) (Scenario, bool) {
	for _, s := range c.Scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// Resolve returns p relative to the config file directory unless it is absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

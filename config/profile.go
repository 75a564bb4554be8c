package config

import (
	"fmt"
	"unicode/utf8"

	"github.com/kilianp07/ewsite/core/profile"
)

// ProfileConfig locates the excavator work-cycle profile. Inline ratios win
// over the file.
type ProfileConfig struct {
	Path         string    `json:"path"`
	Separator    string    `json:"separator"`
	Column       string    `json:"column"`
	DecimalComma bool      `json:"decimal_comma"`
	Ratios       []float64 `json:"ratios"`
}

// SetDefaults applies the layout of the profile files in use: ';' separated,
// column y.
func (c *ProfileConfig) SetDefaults() {
	if c.Separator == "" {
		c.Separator = ";"
	}
	if c.Column == "" {
		c.Column = "y"
	}
}

// Validate checks that a source is given.
func (c ProfileConfig) Validate() error {
	if c.Path == "" && len(c.Ratios) == 0 {
		return fmt.Errorf("path or ratios is required")
	}
	if utf8.RuneCountInString(c.Separator) != 1 {
		return fmt.Errorf("separator must be a single character, got %q", c.Separator)
	}
	return nil
}

// LoadProfile builds the configured profile.
func (c *Config) LoadProfile() (*profile.Profile, error) {
	p := c.Profile
	if len(p.Ratios) > 0 {
		return profile.New(p.Ratios)
	}
	sep, _ := utf8.DecodeRuneInString(p.Separator)
	return profile.Load(c.Resolve(p.Path), profile.DecodeOptions{
		Separator:    sep,
		Column:       p.Column,
		DecimalComma: p.DecimalComma,
	})
}

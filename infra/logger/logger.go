// Package logger provides the zerolog implementation of core/logger.Logger.
package logger

import (
	"io"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	corelogger "github.com/kilianp07/ewsite/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// Config selects the level and output format.
type Config struct {
	Level  string `json:"level"`  // debug, info, warn or error
	Format string `json:"format"` // json or console; empty follows APP_ENV

	// File, when set, receives the logs instead of stderr and is rotated.
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults fills empty fields.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		if strings.EqualFold(os.Getenv("APP_ENV"), "dev") {
			c.Format = "console"
		} else {
			c.Format = "json"
		}
	}
	if c.File != "" && c.MaxSizeMB == 0 {
		c.MaxSizeMB = 50
	}
}

var (
	defaultConfig Config
	defaultOut    io.Writer = os.Stderr
)

// Configure sets the configuration and output used by New.
func Configure(cfg Config) {
	cfg.SetDefaults()
	defaultConfig = cfg
	defaultOut = Output(cfg)
}

// Output returns the writer selected by cfg: stderr, or a rotating file.
func Output(cfg Config) io.Writer {
	if cfg.File == "" {
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
}

// New returns a Logger for the given component writing to the configured output.
func New(component string) Logger {
	return NewWithWriter(defaultConfig, component, defaultOut)
}

// NewWithWriter returns a Logger writing to w.
func NewWithWriter(cfg Config, component string, w io.Writer) Logger {
	cfg.SetDefaults()
	return newZerolog(cfg, component, w)
}

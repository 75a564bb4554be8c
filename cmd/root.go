package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ewsite/config"
	coremon "github.com/kilianp07/ewsite/core/monitoring"
	"github.com/kilianp07/ewsite/infra/logger"
	"github.com/kilianp07/ewsite/infra/monitoring"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "ewsite",
	Short:        "Electrified worksite grid-power simulator",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "configs/ewsite.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	coremon.Flush(2 * time.Second)
	return err
}

// loadConfig reads the configuration and applies its log settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	lc := cfg.Log
	lc.File = cfg.Resolve(lc.File)
	logger.Configure(lc)
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		logger.New("cli").Warnf("sentry disabled: %v", err)
	} else {
		coremon.Init(mon)
	}
	return cfg, nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ewsite/app"
	"github.com/kilianp07/ewsite/infra/logger"
	"github.com/kilianp07/ewsite/infra/metrics"
)

var (
	runScenario  string
	runAll       bool
	runExportDir string
	runFormat    string
	runPromAddr  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate one or all configured scenarios",
	RunE:  runScenarios,
}

func init() {
	runCmd.Flags().StringVarP(&runScenario, "scenario", "s", "", "scenario name")
	runCmd.Flags().BoolVar(&runAll, "all", false, "run every configured scenario")
	runCmd.Flags().StringVar(&runExportDir, "export-dir", "", "write telemetry files to this directory")
	runCmd.Flags().StringVar(&runFormat, "format", "", "export format: csv, json or xlsx")
	runCmd.Flags().StringVar(&runPromAddr, "prom-addr", "", "serve Prometheus metrics on this address until interrupted")
	rootCmd.AddCommand(runCmd)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	if runScenario == "" && !runAll {
		return errors.New("either --scenario or --all is required")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runFormat != "" {
		cfg.Export.Format = runFormat
		if err := cfg.Export.Validate(); err != nil {
			return err
		}
	}
	promAddr := cfg.Metrics.PromAddr
	if runPromAddr != "" {
		promAddr = runPromAddr
	}

	log := logger.New("cli")
	var opts []app.Option
	if runExportDir != "" {
		// flag paths are relative to the working directory, not the config file
		opts = append(opts, app.WithExport(runExportDir, ""))
	}
	runner, err := app.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := runner.Close(); err != nil {
			log.Errorf("runner close: %v", err)
		}
	}()

	promErr := make(chan error, 1)
	if promAddr != "" {
		go func() { promErr <- metrics.StartPromServer(ctx, promAddr, nil) }()
	}

	var results []app.Result
	if runAll {
		results, err = runner.RunAll(ctx)
	} else {
		var res app.Result
		res, err = runner.RunScenario(ctx, runScenario)
		if err == nil {
			results = append(results, res)
		}
	}
	if werr := printResults(cmd.OutOrStdout(), results); werr != nil {
		log.Warnf("print results: %v", werr)
	}
	if err != nil {
		return err
	}

	if promAddr != "" {
		log.Infof("runs complete, serving metrics on %s until interrupted", promAddr)
		select {
		case <-ctx.Done():
		case err := <-promErr:
			return err
		}
	}
	return nil
}

func printResults(w io.Writer, results []app.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "SCENARIO\tPEAK kW\tMEAN kW\tENERGY kWh\tPRODUCTIVITY\tMAX QUEUE\tFILES"); err != nil {
		return err
	}
	for _, r := range results {
		s := r.Summary
		if _, err := fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%.1f\t%.1f%%\t%d\t%d\n",
			r.Scenario, s.PeakPowerKW, s.MeanPowerKW, s.EnergyKWh, s.Productivity*100, s.MaxQueued, len(r.Files)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

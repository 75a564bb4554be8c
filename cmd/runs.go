package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ewsite/api/runs"
	"github.com/kilianp07/ewsite/config"
	"github.com/kilianp07/ewsite/infra/logger"
	"github.com/kilianp07/ewsite/infra/store"
)

var (
	runsScenario string
	runsSince    time.Duration
	runsLimit    int
	runsAddr     string
	runsToken    string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Stored run commands",
}

var runsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored runs",
	RunE:  runRunsLs,
}

var runsServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored runs as JSON on /api/runs",
	RunE:  runRunsServe,
}

func init() {
	runsServeCmd.Flags().StringVar(&runsAddr, "addr", ":8080", "listen address")
	runsServeCmd.Flags().StringVar(&runsToken, "token", os.Getenv("EW_API_TOKEN"), "bearer token required by the API, empty disables auth")
	runsCmd.AddCommand(runsServeCmd)
	runsLsCmd.Flags().StringVarP(&runsScenario, "scenario", "s", "", "only runs of this scenario")
	runsLsCmd.Flags().DurationVar(&runsSince, "since", 0, "only runs started within this duration")
	runsLsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "most recent runs to show, 0 for all")
	runsCmd.AddCommand(runsLsCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	q := store.Query{Scenario: runsScenario, Limit: runsLimit}
	if runsSince > 0 {
		q.Since = time.Now().Add(-runsSince)
	}
	recs, err := st.Query(context.Background(), q)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tSCENARIO\tSTARTED\tPEAK kW\tENERGY kWh\tPRODUCTIVITY"); err != nil {
		return err
	}
	for _, r := range recs {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%.1f\t%.1f%%\n",
			r.ID, r.Scenario, r.StartedAt.Local().Format(time.DateTime),
			r.Summary.PeakPowerKW, r.Summary.EnergyKWh, r.Summary.Productivity*100); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func openStore(cfg *config.Config) (store.RunStore, error) {
	sc := cfg.Store
	sc.Path = cfg.Resolve(sc.Path)
	st, err := store.Open(sc)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errors.New("run store is disabled in the configuration")
	}
	return st, nil
}

func runRunsServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	mux := http.NewServeMux()
	mux.Handle("/api/runs", runs.NewHandler(st, runsToken))
	srv := &http.Server{Addr: runsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log := logger.New("api")
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("api shutdown: %v", err)
		}
	}()
	log.Infof("serving runs on %s", runsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

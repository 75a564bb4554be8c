// Package app wires configuration, the worksite simulation and the run
// outputs (metrics sinks, run store and file export) together.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/ewsite/config"
	coremetrics "github.com/kilianp07/ewsite/core/metrics"
	"github.com/kilianp07/ewsite/core/monitoring"
	"github.com/kilianp07/ewsite/core/profile"
	"github.com/kilianp07/ewsite/core/sizing"
	"github.com/kilianp07/ewsite/core/telemetry"
	"github.com/kilianp07/ewsite/core/worksite"
	"github.com/kilianp07/ewsite/infra/logger"
	"github.com/kilianp07/ewsite/infra/metrics"
	"github.com/kilianp07/ewsite/infra/store"
	"github.com/kilianp07/ewsite/internal/eventbus"
	"github.com/kilianp07/ewsite/pkg/export"
)

// ErrUnknownScenario is returned for a scenario name missing from the configuration.
var ErrUnknownScenario = errors.New("unknown scenario")

// statusBuffer holds the status changes of a run until the collector drains them.
const statusBuffer = 4096

// Result is the outcome of one scenario run.
type Result struct {
	coremetrics.RunResult
	Log   *telemetry.Log
	Files []string // exported files, empty when export is disabled
}

// Runner executes configured scenarios and records their results.
type Runner struct {
	cfg   *config.Config
	prof  *profile.Profile
	est   *sizing.Estimator
	sink  coremetrics.RunSink
	store store.RunStore
	log   logger.Logger
	now   func() time.Time

	exportDir    string
	exportFormat string
}

// Option customises a Runner.
type Option func(*Runner)

// WithSink replaces the sinks built from the metrics configuration.
func WithSink(s coremetrics.RunSink) Option {
	return func(r *Runner) { r.sink = s }
}

// WithStore replaces the store built from the store configuration.
func WithStore(s store.RunStore) Option {
	return func(r *Runner) { r.store = s }
}

// WithExport overrides the export directory and format. An empty dir disables export.
func WithExport(dir, format string) Option {
	return func(r *Runner) {
		r.exportDir = dir
		if format != "" {
			r.exportFormat = format
		}
	}
}

// WithLogger sets the runner logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithClock sets the wall clock used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New builds a Runner. The profile is loaded once and shared by every run.
func New(cfg *config.Config, opts ...Option) (*Runner, error) {
	r := &Runner{
		cfg:          cfg,
		log:          logger.New("runner"),
		now:          time.Now,
		exportDir:    cfg.Resolve(cfg.Export.Dir),
		exportFormat: cfg.Export.Format,
	}
	for _, opt := range opts {
		opt(r)
	}
	prof, err := cfg.LoadProfile()
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	r.prof = prof
	est, err := sizing.NewEstimator()
	if err != nil {
		return nil, fmt.Errorf("battery sizing: %w", err)
	}
	r.est = est
	if r.sink == nil {
		sink, err := coremetrics.NewRunSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sinks: %w", err)
		}
		r.sink = sink
	}
	if r.store == nil {
		sc := cfg.Store
		sc.Path = cfg.Resolve(sc.Path)
		st, err := store.Open(sc)
		if err != nil {
			return nil, fmt.Errorf("run store: %w", err)
		}
		r.store = st
	}
	return r, nil
}

// RunScenario simulates the named scenario and records its result. Failures
// are reported to the configured monitor.
func (r *Runner) RunScenario(ctx context.Context, name string) (Result, error) {
	res, err := r.runScenario(ctx, name)
	if err != nil && !errors.Is(err, context.Canceled) {
		monitoring.CaptureException(err, map[string]string{"scenario": name})
	}
	return res, err
}

func (r *Runner) runScenario(ctx context.Context, name string) (Result, error) {
	s, ok := r.cfg.Find(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}
	fleet := s.Fleet(r.cfg.Machines[s.Size], r.est)

	bus := eventbus.New[telemetry.Event](statusBuffer)
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := metrics.StartStatusCollector(cctx, bus, s.Name, r.sink)

	ws, err := worksite.New(fleet, s.Schedule(), r.prof, s.Chargers,
		worksite.WithBaseLoad(s.BaseLoadKW),
		worksite.WithLogger(logger.New("worksite")),
		worksite.WithEvents(bus),
	)
	if err != nil {
		bus.Close()
		return Result{}, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	started := r.now()
	tlog, err := ws.Run(ctx)
	elapsed := r.now().Sub(started)
	bus.Close()
	<-done
	if err != nil {
		return Result{}, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	if n := bus.Dropped(); n > 0 {
		r.log.Warnf("scenario %s: %d status events dropped", s.Name, n)
	}

	acc := ws.Accounting()
	res := Result{
		RunResult: coremetrics.RunResult{
			RunID:     uuid.NewString(),
			Scenario:  s.Name,
			Chargers:  s.Chargers,
			Machines:  fleet.Total(),
			StartedAt: started,
			Elapsed:   elapsed,
			Origin:    s.Origin(started),
			Summary:   telemetry.Summarize(tlog, acc),
		},
		Log: tlog,
	}
	r.record(res.RunResult, tlog, acc)

	if r.store != nil {
		if err := r.store.Append(ctx, store.NewRunRecord(res.RunResult)); err != nil {
			return res, fmt.Errorf("store run %s: %w", s.Name, err)
		}
	}
	if r.exportDir != "" {
		rep := export.NewReport(s.Name, res.RunID, res.Origin, tlog, acc)
		files, err := export.WriteFiles(r.exportDir, r.exportFormat, rep)
		if err != nil {
			return res, fmt.Errorf("export %s: %w", s.Name, err)
		}
		res.Files = files
	}
	r.log.Infow("scenario complete", map[string]any{
		"scenario":      s.Name,
		"run_id":        res.RunID,
		"peak_power_kw": res.Summary.PeakPowerKW,
		"productivity":  res.Summary.Productivity,
		"elapsed_ms":    elapsed.Milliseconds(),
	})
	return res, nil
}

// record forwards the result to the sinks. Sink failures are logged and do
// not fail the run.
func (r *Runner) record(res coremetrics.RunResult, tlog *telemetry.Log, acc telemetry.Accounting) {
	if err := r.sink.RecordRun(res); err != nil {
		r.log.Warnf("record run %s: %v", res.Scenario, err)
	}
	if sr, ok := r.sink.(coremetrics.SeriesRecorder); ok {
		if err := sr.RecordSeries(res, tlog.Frames(acc)); err != nil {
			r.log.Warnf("record series %s: %v", res.Scenario, err)
		}
	}
}

// RunAll runs every configured scenario in order. It stops at the first error.
func (r *Runner) RunAll(ctx context.Context) ([]Result, error) {
	out := make([]Result, 0, len(r.cfg.Scenarios))
	for _, s := range r.cfg.Scenarios {
		res, err := r.RunScenario(ctx, s.Name)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

// Runs queries the run store. It returns nil when persistence is disabled.
func (r *Runner) Runs(ctx context.Context, q store.Query) ([]store.RunRecord, error) {
	if r.store == nil {
		return nil, nil
	}
	return r.store.Query(ctx, q)
}

// Close releases the store and any sink holding connections.
func (r *Runner) Close() error {
	if c, ok := r.sink.(coremetrics.Closer); ok {
		c.Close()
	}
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}

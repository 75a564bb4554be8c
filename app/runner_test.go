package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ewsite/config"
	corelogger "github.com/kilianp07/ewsite/core/logger"
	coremetrics "github.com/kilianp07/ewsite/core/metrics"
	"github.com/kilianp07/ewsite/core/monitoring"
	"github.com/kilianp07/ewsite/core/telemetry"
	"github.com/kilianp07/ewsite/infra/store"
)

type recordingSink struct {
	mu     sync.Mutex
	runs   []coremetrics.RunResult
	frames int
	status []coremetrics.StatusEvent
}

func (s *recordingSink) RecordRun(res coremetrics.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, res)
	return nil
}

func (s *recordingSink) RecordSeries(_ coremetrics.RunResult, frames []telemetry.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = len(frames)
	return nil
}

func (s *recordingSink) RecordStatus(ev coremetrics.StatusEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = append(s.status, ev)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	scn := func(name string) config.Scenario {
		return config.Scenario{
			Name:                 name,
			Size:                 "small",
			WorkdaySeconds:       7200,
			Break1Seconds:        1800,
			Break2Seconds:        5400,
			BreakDurationSeconds: 600,
			StartTimeSeconds:     7 * 3600,
			Chargers:             1,
			ChargingPowerKW:      150,
			ChargingThresholdPct: 10,
			BaseLoadKW:           5,
			Dumpers:              1,
			ExcavatorsCable:      1,
		}
	}
	cfg := &config.Config{
		Profile: config.ProfileConfig{Ratios: []float64{0.5, 1}},
		Machines: map[string]config.SizeClass{
			"small": {
				Dumper:    config.MachineClass{BatteryKWh: 20, RatedPowerKW: 36},
				Excavator: config.MachineClass{RatedPowerKW: 50},
			},
		},
		Scenarios: []config.Scenario{scn("SMALL1"), scn("SMALL2")},
		Store:     store.Config{Backend: "jsonl", Path: filepath.Join(dir, "runs.jsonl")},
		Export:    config.ExportConfig{Dir: filepath.Join(dir, "out")},
	}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestRunner(t *testing.T, cfg *config.Config, sink coremetrics.RunSink) *Runner {
	t.Helper()
	clock := time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)
	r, err := New(cfg,
		WithSink(sink),
		WithLogger(corelogger.Nop{}),
		WithClock(func() time.Time { return clock }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRunScenarioRecordsEverywhere(t *testing.T) {
	cfg := testConfig(t)
	sink := &recordingSink{}
	r := newTestRunner(t, cfg, sink)

	res, err := r.RunScenario(context.Background(), "SMALL1")
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "SMALL1", res.Scenario)
	assert.Equal(t, 2, res.Machines)
	assert.Equal(t, 1, res.Chargers)
	assert.Equal(t, time.Date(2024, 5, 17, 7, 0, 0, 0, time.UTC), res.Origin)
	assert.Greater(t, res.Summary.PeakPowerKW, 0.0)

	require.Len(t, sink.runs, 1)
	assert.Equal(t, res.RunID, sink.runs[0].RunID)
	assert.Equal(t, 7200, sink.frames)
	// the dumper goes to the charger at the first break
	assert.NotEmpty(t, sink.status)
	for _, ev := range sink.status {
		assert.Equal(t, "SMALL1", ev.Scenario)
	}

	recs, err := r.Runs(context.Background(), store.Query{Scenario: "SMALL1"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, res.RunID, recs[0].ID)

	require.Len(t, res.Files, 2)
	for _, f := range res.Files {
		_, err := os.Stat(f)
		assert.NoError(t, err)
	}
}

func TestRunAll(t *testing.T) {
	cfg := testConfig(t)
	r := newTestRunner(t, cfg, &recordingSink{})

	results, err := r.RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "SMALL1", results[0].Scenario)
	assert.Equal(t, "SMALL2", results[1].Scenario)
	assert.NotEqual(t, results[0].RunID, results[1].RunID)
	// identical settings give identical telemetry
	assert.Equal(t, results[0].Summary, results[1].Summary)

	recs, err := r.Runs(context.Background(), store.Query{})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

type captureMonitor struct{ tags []map[string]string }

func (c *captureMonitor) CaptureException(_ error, tags map[string]string) {
	c.tags = append(c.tags, tags)
}

func (c *captureMonitor) Flush(time.Duration) {}

func TestRunScenarioUnknown(t *testing.T) {
	mon := &captureMonitor{}
	monitoring.Init(mon)
	t.Cleanup(func() { monitoring.Init(nil) })

	r := newTestRunner(t, testConfig(t), &recordingSink{})
	_, err := r.RunScenario(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrUnknownScenario)
	require.Len(t, mon.tags, 1)
	assert.Equal(t, "NOPE", mon.tags[0]["scenario"])
}

func TestRunScenarioCanceled(t *testing.T) {
	sink := &recordingSink{}
	r := newTestRunner(t, testConfig(t), sink)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.RunScenario(ctx, "SMALL1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.runs)
}

func TestRunnerWithoutStoreOrExport(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = store.Config{}
	r, err := New(cfg, WithSink(coremetrics.NopSink{}), WithLogger(corelogger.Nop{}), WithExport("", ""))
	require.NoError(t, err)
	res, err := r.RunScenario(context.Background(), "SMALL2")
	require.NoError(t, err)
	assert.Empty(t, res.Files)
	recs, err := r.Runs(context.Background(), store.Query{})
	require.NoError(t, err)
	assert.Nil(t, recs)
	assert.NoError(t, r.Close())
}

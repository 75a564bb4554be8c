package metrics

import (
	"time"

	"github.com/kilianp07/ewsite/core/model"
	"github.com/kilianp07/ewsite/core/telemetry"
)

// RunResult is the outcome of one scenario run.
type RunResult struct {
	RunID     string
	Scenario  string
	Chargers  int
	Machines  int
	StartedAt time.Time     // wall clock at the start of the run
	Elapsed   time.Duration // wall-clock duration of the run
	Origin    time.Time     // wall-clock label of simulated second 0
	Summary   telemetry.Summary
}

// At converts a simulated second into a wall-clock time on the run's timeline.
func (r RunResult) At(sec int64) time.Time {
	return r.Origin.Add(time.Duration(sec) * time.Second)
}

// RunSink records run results.
type RunSink interface {
	RecordRun(res RunResult) error
}

// SeriesRecorder records the per-second series of a run.
type SeriesRecorder interface {
	RecordSeries(res RunResult, frames []telemetry.Frame) error
}

// StatusEvent is a machine status change observed during a run.
type StatusEvent struct {
	Scenario  string
	MachineID string
	Type      model.MachineType
	Status    model.Status
	SimTime   int64
}

// StatusRecorder records machine status changes.
type StatusRecorder interface {
	RecordStatus(ev StatusEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunResult) error                       { return nil }
func (NopSink) RecordSeries(RunResult, []telemetry.Frame) error { return nil }
func (NopSink) RecordStatus(StatusEvent) error                  { return nil }

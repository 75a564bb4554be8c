package metrics

import (
	"errors"

	"github.com/kilianp07/ewsite/core/telemetry"
)

// MultiSink fans out to multiple sinks.
type MultiSink struct {
	Sinks []RunSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...RunSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the result to every sink and joins their errors.
func (m *MultiSink) RecordRun(res RunResult) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordRun(res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordSeries forwards the series to sinks that record them.
func (m *MultiSink) RecordSeries(res RunResult, frames []telemetry.Frame) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(SeriesRecorder); ok {
			if err := r.RecordSeries(res, frames); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordStatus forwards status changes to sinks that record them.
func (m *MultiSink) RecordStatus(ev StatusEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(StatusRecorder); ok {
			if err := r.RecordStatus(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Closer is implemented by sinks holding connections.
type Closer interface {
	Close()
}

// Close closes every sink implementing Closer.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(Closer); ok {
			c.Close()
		}
	}
}

// Package metrics defines the sinks that receive the outcome of worksite runs.
//
// Every sink implements RunSink. Sinks may also implement SeriesRecorder or
// StatusRecorder; callers discover those with a type assertion. NewRunSink
// builds sinks from configuration through the registry filled by infra/metrics
// and wraps several of them in a MultiSink.
package metrics

package metrics

import (
	coremetrics "github.com/kilianp07/ewsite/core/metrics"
	"github.com/kilianp07/ewsite/core/telemetry"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink exposes run results as Prometheus metrics labelled by scenario.
type PromSink struct {
	runs         *prometheus.CounterVec
	peak         *prometheus.GaugeVec
	mean         *prometheus.GaugeVec
	energy       *prometheus.GaugeVec
	productivity *prometheus.GaugeVec
	stalls       *prometheus.GaugeVec
	power        *prometheus.HistogramVec
	transitions  *prometheus.CounterVec
}

// NewPromSink registers the worksite metrics on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, []string{"scenario"})
	}
	s := &PromSink{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ewsite_runs_total",
			Help: "Number of completed worksite runs",
		}, []string{"scenario"}),
		peak:         gauge("ewsite_peak_power_kw", "Peak grid power of the last run"),
		mean:         gauge("ewsite_mean_power_kw", "Mean grid power of the last run"),
		energy:       gauge("ewsite_energy_kwh", "Energy drawn from the grid during the last run"),
		productivity: gauge("ewsite_productivity_ratio", "Share of planned machine hours worked in the last run"),
		stalls:       gauge("ewsite_stall_seconds", "Machine seconds lost to empty batteries in the last run"),
		power: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ewsite_grid_power_kw",
			Help:    "Distribution of per-second grid power",
			Buckets: []float64{0, 50, 100, 150, 250, 400, 600, 900, 1350, 2000},
		}, []string{"scenario"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ewsite_status_transitions_total",
			Help: "Machine status transitions",
		}, []string{"scenario", "machine_type", "status"}),
	}

	var err error
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	for _, g := range []**prometheus.GaugeVec{&s.peak, &s.mean, &s.energy, &s.productivity, &s.stalls} {
		if *g, err = register(reg, *g); err != nil {
			return nil, err
		}
	}
	if s.power, err = register(reg, s.power); err != nil {
		return nil, err
	}
	if s.transitions, err = register(reg, s.transitions); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordRun sets the per-scenario gauges.
func (s *PromSink) RecordRun(res coremetrics.RunResult) error {
	sum := res.Summary
	s.runs.WithLabelValues(res.Scenario).Inc()
	s.peak.WithLabelValues(res.Scenario).Set(sum.PeakPowerKW)
	s.mean.WithLabelValues(res.Scenario).Set(sum.MeanPowerKW)
	s.energy.WithLabelValues(res.Scenario).Set(sum.EnergyKWh)
	s.productivity.WithLabelValues(res.Scenario).Set(sum.Productivity)
	s.stalls.WithLabelValues(res.Scenario).Set(float64(sum.StallTicks))
	return nil
}

// RecordSeries observes every second of grid power.
func (s *PromSink) RecordSeries(res coremetrics.RunResult, frames []telemetry.Frame) error {
	obs := s.power.WithLabelValues(res.Scenario)
	for _, f := range frames {
		obs.Observe(f.PowerKW)
	}
	return nil
}

// RecordStatus counts a status transition.
func (s *PromSink) RecordStatus(ev coremetrics.StatusEvent) error {
	s.transitions.WithLabelValues(ev.Scenario, ev.Type.String(), ev.Status.String()).Inc()
	return nil
}

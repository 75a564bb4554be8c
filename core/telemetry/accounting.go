package telemetry

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/ewsite/core/model"
)

// Accounting describes the fleet for productivity calculations.
type Accounting struct {
	TotalMachines int
	CableMachines int
	Schedule      model.ScheduleConfig
}

// ActiveSeries returns the number of machines producing work for every second.
// Cable excavators are powered down inside the open break windows and do not count.
func (l *Log) ActiveSeries(acc Accounting) []int {
	unavailable := l.UnavailableSeries()
	out := make([]int, len(unavailable))
	for t, u := range unavailable {
		n := acc.TotalMachines - u
		if acc.Schedule.InOpenBreak(int64(t)) {
			n -= acc.CableMachines
		}
		if n < 0 {
			n = 0
		}
		out[t] = n
	}
	return out
}

// Frame is one row of the derived per-second series.
type Frame struct {
	Time        int64   `json:"time"`
	PowerKW     float64 `json:"power_kw"`
	Occupied    int     `json:"occupied"`
	Queued      int     `json:"queued"`
	Stalled     int     `json:"stalled"`
	Unavailable int     `json:"unavailable"`
	Active      int     `json:"active"`
}

// Frames returns one Frame per simulated second.
func (l *Log) Frames(acc Accounting) []Frame {
	power := l.PowerSeries()
	active := l.ActiveSeries(acc)
	frames := make([]Frame, l.Horizon)
	for i := range frames {
		t := int64(i)
		frames[i] = Frame{
			Time:        t,
			PowerKW:     power[i],
			Occupied:    l.Occupancy[t],
			Queued:      l.Queued[t],
			Stalled:     l.Stalls[t],
			Unavailable: l.Occupancy[t] + l.Stalls[t],
			Active:      active[i],
		}
	}
	return frames
}

// Summary condenses a run into the figures reported per scenario.
type Summary struct {
	PeakPowerKW   float64 `json:"peak_power_kw"`
	MeanPowerKW   float64 `json:"mean_power_kw"`
	StdDevPowerKW float64 `json:"stddev_power_kw"`
	EnergyKWh     float64 `json:"energy_kwh"`
	PlannedHours  float64 `json:"planned_hours"`
	WorkedHours   float64 `json:"worked_hours"`
	MissedHours   float64 `json:"missed_hours"`
	Productivity  float64 `json:"productivity"`
	StallTicks    int     `json:"stall_ticks"`
	MaxOccupied   int     `json:"max_occupied"`
	MaxQueued     int     `json:"max_queued"`
}

// Summarize computes peak and mean grid power, the day's energy demand and the
// share of planned machine hours actually worked.
func Summarize(l *Log, acc Accounting) Summary {
	var s Summary
	power := l.PowerSeries()
	if len(power) > 0 {
		s.PeakPowerKW = floats.Max(power)
		s.MeanPowerKW = stat.Mean(power, nil)
		if len(power) > 1 {
			s.StdDevPowerKW = stat.StdDev(power, nil)
		}
	}
	s.EnergyKWh = s.MeanPowerKW * float64(l.Horizon) / 3600

	active := 0
	for _, n := range l.ActiveSeries(acc) {
		active += n
	}
	s.WorkedHours = float64(active) / 3600
	s.PlannedHours = float64(acc.TotalMachines) * float64(acc.Schedule.PlannedWorkSeconds()) / 3600
	s.MissedHours = s.PlannedHours - s.WorkedHours
	if s.PlannedHours > 0 {
		s.Productivity = 1 - s.MissedHours/s.PlannedHours
	}

	for _, n := range l.Stalls {
		s.StallTicks += n
	}
	for _, n := range l.Occupancy {
		if n > s.MaxOccupied {
			s.MaxOccupied = n
		}
	}
	for _, n := range l.Queued {
		if n > s.MaxQueued {
			s.MaxQueued = n
		}
	}
	return s
}

package telemetry

import "github.com/kilianp07/ewsite/core/model"

// BatterySample is one (time, machine, level) triple.
type BatterySample struct {
	Time      int64   `json:"time"`
	MachineID string  `json:"machine_id"`
	LevelKWh  float64 `json:"level_kwh"`
}

// Transition records a machine status change.
type Transition struct {
	Time      int64        `json:"time"`
	MachineID string       `json:"machine_id"`
	Status    model.Status `json:"status"`
}

// Log accumulates a run's telemetry. It grows monotonically and is meant to be
// read once the run has halted.
type Log struct {
	Horizon    int64   // first time that is not simulated
	BaseLoadKW float64 // constant load added to every power sample

	BatterySamples []BatterySample
	Power          map[int64]float64 // kW drawn by bays and cable machines, base load excluded
	Occupancy      map[int64]int     // bays held, as last sampled at that time
	Queued         map[int64]int     // machines waiting for a bay, as last sampled
	Stalls         map[int64]int     // machines that could not work during the tick starting at that time
	Transitions    []Transition
}

// NewLog returns an empty log for a run ending at horizon.
func NewLog(horizon int64, baseLoadKW float64) *Log {
	return &Log{
		Horizon:    horizon,
		BaseLoadKW: baseLoadKW,
		Power:      make(map[int64]float64),
		Occupancy:  make(map[int64]int),
		Queued:     make(map[int64]int),
		Stalls:     make(map[int64]int),
	}
}

// Emit implements Sink.
func (l *Log) Emit(ev Event) {
	switch ev.Kind {
	case BatterySampled:
		l.BatterySamples = append(l.BatterySamples, BatterySample{Time: ev.Time, MachineID: ev.MachineID, LevelKWh: ev.Value})
	case OccupancySampled:
		l.Occupancy[ev.Time] = ev.Occupied
		l.Queued[ev.Time] = ev.Queued
	case PowerDrawn:
		l.Power[ev.Time] += ev.Value
	case Stalled:
		l.Stalls[ev.Time]++
	case StatusChanged:
		l.Transitions = append(l.Transitions, Transition{Time: ev.Time, MachineID: ev.MachineID, Status: ev.Status})
	}
}

// PowerSeries returns the grid power for every second of [0, Horizon), base load included.
func (l *Log) PowerSeries() []float64 {
	out := make([]float64, l.Horizon)
	for t := range out {
		out[t] = l.Power[int64(t)] + l.BaseLoadKW
	}
	return out
}

// OccupancySeries returns the sampled bay occupancy for every second.
func (l *Log) OccupancySeries() []int { return l.intSeries(l.Occupancy) }

// QueueSeries returns the sampled queue length for every second.
func (l *Log) QueueSeries() []int { return l.intSeries(l.Queued) }

// StallSeries returns the number of stalled machines for every second.
func (l *Log) StallSeries() []int { return l.intSeries(l.Stalls) }

// UnavailableSeries returns, for every second, the machines held at a charger
// plus the machines stalled on an empty battery.
func (l *Log) UnavailableSeries() []int {
	out := make([]int, l.Horizon)
	for t := range out {
		out[t] = l.Occupancy[int64(t)] + l.Stalls[int64(t)]
	}
	return out
}

func (l *Log) intSeries(m map[int64]int) []int {
	out := make([]int, l.Horizon)
	for t := range out {
		out[t] = m[int64(t)]
	}
	return out
}

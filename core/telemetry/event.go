// Package telemetry collects the time-indexed output of a worksite run.
//
// Agents never write to shared state: they emit Events to a Sink and the Log
// owned by the orchestrator folds them into series. Charger occupancy and
// battery-exhaustion stalls are kept apart; UnavailableSeries combines them.
package telemetry

import "github.com/kilianp07/ewsite/core/model"

// EventKind discriminates telemetry events.
type EventKind int

const (
	// BatterySampled carries a machine's battery level.
	BatterySampled EventKind = iota
	// OccupancySampled carries the number of occupied and queued charger bays.
	OccupancySampled
	// PowerDrawn carries power drawn from the grid by a bay or a cable machine.
	PowerDrawn
	// Stalled marks a machine that could not work for lack of energy.
	Stalled
	// StatusChanged marks a machine status transition.
	StatusChanged
)

func (k EventKind) String() string {
	switch k {
	case BatterySampled:
		return "battery_sampled"
	case OccupancySampled:
		return "occupancy_sampled"
	case PowerDrawn:
		return "power_drawn"
	case Stalled:
		return "stalled"
	case StatusChanged:
		return "status_changed"
	default:
		return "unknown"
	}
}

// Event is a single telemetry message emitted by an agent.
type Event struct {
	Kind      EventKind
	Time      int64
	MachineID string
	Type      model.MachineType
	Value     float64 // kWh for BatterySampled, kW for PowerDrawn
	Occupied  int
	Queued    int
	Status    model.Status
}

// Sink consumes telemetry events.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit implements Sink.
func (f SinkFunc) Emit(ev Event) { f(ev) }

// Tee forwards every event to each sink in order.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(ev Event) {
		for _, s := range sinks {
			s.Emit(ev)
		}
	})
}

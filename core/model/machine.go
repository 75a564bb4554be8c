package model

import "fmt"

// MachineType identifies the kind of electrified machine on the worksite.
type MachineType int

const (
	WheelLoader MachineType = iota
	Dumper
	ExcavatorBattery
	ExcavatorCable
)

// SpawnOrder is the fixed order in which machine groups are registered with the
// engine. Telemetry for a tick depends on it, so it must never change.
var SpawnOrder = []MachineType{ExcavatorBattery, ExcavatorCable, Dumper, WheelLoader}

func (t MachineType) String() string {
	switch t {
	case WheelLoader:
		return "wheel_loader"
	case Dumper:
		return "dumper"
	case ExcavatorBattery:
		return "excavator_battery"
	case ExcavatorCable:
		return "excavator_cable"
	default:
		return "unknown"
	}
}

// Prefix returns the short id prefix used for machines of this type.
func (t MachineType) Prefix() string {
	switch t {
	case WheelLoader:
		return "WL"
	case Dumper:
		return "DU"
	case ExcavatorBattery:
		return "EX"
	case ExcavatorCable:
		return "EX_C"
	default:
		return "??"
	}
}

// HasBattery reports whether machines of this type run on a battery.
func (t MachineType) HasBattery() bool { return t != ExcavatorCable }

// Status is the externally visible state of a machine.
type Status int

const (
	Working Status = iota
	AwaitingCharger
	Charging
	Inactive
)

func (s Status) String() string {
	switch s {
	case Working:
		return "working"
	case AwaitingCharger:
		return "awaiting_charger"
	case Charging:
		return "charging"
	case Inactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// Machine is one electrified machine. It is owned and mutated by a single agent.
type Machine struct {
	ID           string
	Type         MachineType
	RatedPowerKW float64 // operating power in kW
	Battery      Battery // zero value for cable-fed machines
	Status       Status
}

// NewMachine builds the n-th (1-based) machine of the given type with a full battery.
func NewMachine(t MachineType, n int, spec MachineSpec) *Machine {
	m := &Machine{
		ID:           fmt.Sprintf("%s #%d", t.Prefix(), n),
		Type:         t,
		RatedPowerKW: spec.RatedPowerKW,
		Status:       Working,
	}
	if t.HasBattery() {
		m.Battery = NewBattery(spec.BatteryKWh)
	}
	return m
}

package model

import "fmt"

// MachineSpec describes how many machines of one type exist and their ratings.
type MachineSpec struct {
	Count        int     `json:"count"`
	BatteryKWh   float64 `json:"battery_kwh"`    // ignored for cable-fed excavators
	RatedPowerKW float64 `json:"rated_power_kw"` // operating power
}

// FleetSpec lists the machine groups of a worksite.
type FleetSpec struct {
	WheelLoaders      MachineSpec `json:"wheel_loaders"`
	Dumpers           MachineSpec `json:"dumpers"`
	ExcavatorsBattery MachineSpec `json:"excavators_battery"`
	ExcavatorsCable   MachineSpec `json:"excavators_cable"`
}

// Spec returns the group definition for the given machine type.
func (f FleetSpec) Spec(t MachineType) MachineSpec {
	switch t {
	case WheelLoader:
		return f.WheelLoaders
	case Dumper:
		return f.Dumpers
	case ExcavatorBattery:
		return f.ExcavatorsBattery
	case ExcavatorCable:
		return f.ExcavatorsCable
	}
	return MachineSpec{}
}

// Total returns the number of machines of every type.
func (f FleetSpec) Total() int {
	n := 0
	for _, t := range SpawnOrder {
		n += f.Spec(t).Count
	}
	return n
}

// BatteryMachines returns the number of machines that need a charger.
func (f FleetSpec) BatteryMachines() int {
	return f.Total() - f.ExcavatorsCable.Count
}

// Validate rejects negative counts, capacities and power ratings.
func (f FleetSpec) Validate() error {
	for _, t := range SpawnOrder {
		s := f.Spec(t)
		if s.Count < 0 {
			return fmt.Errorf("%w: %s count must not be negative", ErrInvalidConfig, t)
		}
		if s.RatedPowerKW < 0 {
			return fmt.Errorf("%w: %s rated power must not be negative", ErrInvalidConfig, t)
		}
		if t.HasBattery() && s.BatteryKWh < 0 {
			return fmt.Errorf("%w: %s battery capacity must not be negative", ErrInvalidConfig, t)
		}
	}
	return nil
}

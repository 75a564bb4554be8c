package config

import (
	"fmt"

	"github.com/kilianp07/ewsite/core/model"
	"github.com/kilianp07/ewsite/core/sizing"
)

// MachineClass rates one machine family. When BatteryKWh is zero the
// capacity is estimated from WeightKG.
type MachineClass struct {
	BatteryKWh   float64 `json:"battery_kwh"`
	RatedPowerKW float64 `json:"rated_power_kw"`
	WeightKG     float64 `json:"weight_kg"`
}

// SizeClass groups the machine ratings used by scenarios of one size, such as
// medium or large. Battery and cable excavators share the excavator rating.
type SizeClass struct {
	WheelLoader MachineClass `json:"wheel_loader"`
	Dumper      MachineClass `json:"dumper"`
	Excavator   MachineClass `json:"excavator"`
}

// Validate rejects negative ratings.
func (s SizeClass) Validate() error {
	for name, m := range map[string]MachineClass{"wheel_loader": s.WheelLoader, "dumper": s.Dumper, "excavator": s.Excavator} {
		if m.BatteryKWh < 0 || m.RatedPowerKW < 0 || m.WeightKG < 0 {
			return fmt.Errorf("%s: ratings must not be negative", name)
		}
	}
	return nil
}

// Class returns the rating for machines of type t.
func (s SizeClass) Class(t model.MachineType) MachineClass {
	switch t {
	case model.WheelLoader:
		return s.WheelLoader
	case model.Dumper:
		return s.Dumper
	}
	return s.Excavator
}

// Spec turns a rating into a machine group of n machines.
func (m MachineClass) Spec(t model.MachineType, n int, est *sizing.Estimator) model.MachineSpec {
	battery := m.BatteryKWh
	if battery == 0 && m.WeightKG > 0 && t.HasBattery() && est != nil {
		battery = est.BatteryKWh(t, m.WeightKG)
	}
	return model.MachineSpec{Count: n, BatteryKWh: battery, RatedPowerKW: m.RatedPowerKW}
}

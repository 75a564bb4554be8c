package config

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/ewsite/core/model"
	"github.com/kilianp07/ewsite/core/sizing"
)

// Scenario is one named simulation setting, for example MED6B150.
type Scenario struct {
	Name                 string  `json:"name"`
	Size                 string  `json:"size"`
	WorkdaySeconds       int64   `json:"workday_s"`
	Break1Seconds        int64   `json:"break1_s"`
	Break2Seconds        int64   `json:"break2_s"`
	BreakDurationSeconds int64   `json:"break_duration_s"`
	StartTimeSeconds     int64   `json:"start_time_s"` // wall-clock offset of second 0, seconds after midnight
	Chargers             int     `json:"chargers"`
	ChargingPowerKW      float64 `json:"charging_power_kw"`
	ChargingThresholdPct float64 `json:"charging_threshold_pct"`
	BaseLoadKW           float64 `json:"base_load_kw"`
	WheelLoaders         int     `json:"wheel_loaders"`
	Dumpers              int     `json:"dumpers"`
	ExcavatorsBattery    int     `json:"excavators_battery"`
	ExcavatorsCable      int     `json:"excavators_cable"`
}

const (
	defaultWorkdaySeconds       = 9 * 3600
	defaultBreakDurationSeconds = 30 * 60
)

// scenarioDefaults fill the keys a scenario entry of a config file leaves out:
// a 9 hour day starting at 07:00 with breaks after 2 and 5 hours, 30 minute
// breaks and 150 kW chargers engaging at 10 %. They are merged before decoding
// so an explicit 0 in the file is kept.
var scenarioDefaults = map[string]any{
	"workday_s":              defaultWorkdaySeconds,
	"break1_s":               2 * 3600,
	"break2_s":               5 * 3600,
	"break_duration_s":       defaultBreakDurationSeconds,
	"start_time_s":           7 * 3600,
	"charging_power_kw":      150.0,
	"charging_threshold_pct": 10.0,
}

// applyScenarioDefaults merges scenarioDefaults under every scenario entry
// loaded in k.
func applyScenarioDefaults(k *koanf.Koanf) error {
	entries, ok := k.Get("scenarios").([]any)
	if !ok {
		return nil
	}
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		for key, v := range scenarioDefaults {
			if _, set := m[key]; !set {
				m[key] = v
			}
		}
	}
	return k.Set("scenarios", entries)
}

// SetDefaults fills the workday and break duration, whose zero value is never
// valid. Every other zero is kept as configured.
func (s *Scenario) SetDefaults() {
	if s.WorkdaySeconds == 0 {
		s.WorkdaySeconds = defaultWorkdaySeconds
	}
	if s.BreakDurationSeconds == 0 {
		s.BreakDurationSeconds = defaultBreakDurationSeconds
	}
}

// Validate checks the fields that the schedule and fleet checks do not cover.
func (s Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Size == "" {
		return fmt.Errorf("size is required")
	}
	if s.StartTimeSeconds < 0 || s.StartTimeSeconds >= 24*3600 {
		return fmt.Errorf("start_time_s %d outside the day", s.StartTimeSeconds)
	}
	if s.Chargers < 0 {
		return fmt.Errorf("chargers must not be negative")
	}
	if s.BaseLoadKW < 0 {
		return fmt.Errorf("base_load_kw must not be negative")
	}
	return s.Schedule().Validate()
}

// Schedule returns the day layout of the scenario.
func (s Scenario) Schedule() model.ScheduleConfig {
	return model.ScheduleConfig{
		WorkdaySeconds:    s.WorkdaySeconds,
		Break1:            s.Break1Seconds,
		Break2:            s.Break2Seconds,
		BreakDuration:     s.BreakDurationSeconds,
		ChargingThreshold: s.ChargingThresholdPct / 100,
		ChargingRateKW:    s.ChargingPowerKW,
	}
}

// Fleet builds the fleet from the scenario's counts and its size class.
func (s Scenario) Fleet(class SizeClass, est *sizing.Estimator) model.FleetSpec {
	spec := func(t model.MachineType, n int) model.MachineSpec {
		return class.Class(t).Spec(t, n, est)
	}
	return model.FleetSpec{
		WheelLoaders:      spec(model.WheelLoader, s.WheelLoaders),
		Dumpers:           spec(model.Dumper, s.Dumpers),
		ExcavatorsBattery: spec(model.ExcavatorBattery, s.ExcavatorsBattery),
		ExcavatorsCable:   spec(model.ExcavatorCable, s.ExcavatorsCable),
	}
}

// Origin returns the wall-clock time of simulated second 0 on the given day.
func (s Scenario) Origin(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, day.Location()).Add(time.Duration(s.StartTimeSeconds) * time.Second)
}

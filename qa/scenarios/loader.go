// Package scenarios runs YAML regression fixtures through the worksite
// simulation and checks the summary against expected bounds.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/ewsite/core/model"
)

type GroupDef struct {
	Count        int     `yaml:"count"`
	BatteryKWh   float64 `yaml:"battery_kwh"`
	RatedPowerKW float64 `yaml:"rated_power_kw"`
}

func (g GroupDef) ToModel() model.MachineSpec {
	return model.MachineSpec{Count: g.Count, BatteryKWh: g.BatteryKWh, RatedPowerKW: g.RatedPowerKW}
}

type FleetDef struct {
	WheelLoaders      GroupDef `yaml:"wheel_loaders"`
	Dumpers           GroupDef `yaml:"dumpers"`
	ExcavatorsBattery GroupDef `yaml:"excavators_battery"`
	ExcavatorsCable   GroupDef `yaml:"excavators_cable"`
}

func (f FleetDef) ToModel() model.FleetSpec {
	return model.FleetSpec{
		WheelLoaders:      f.WheelLoaders.ToModel(),
		Dumpers:           f.Dumpers.ToModel(),
		ExcavatorsBattery: f.ExcavatorsBattery.ToModel(),
		ExcavatorsCable:   f.ExcavatorsCable.ToModel(),
	}
}

type ScheduleDef struct {
	WorkdaySeconds    int64   `yaml:"workday_seconds"`
	Break1            int64   `yaml:"break_1"`
	Break2            int64   `yaml:"break_2"`
	BreakDuration     int64   `yaml:"break_duration"`
	ChargingThreshold float64 `yaml:"charging_threshold"`
	ChargingRateKW    float64 `yaml:"charging_rate_kw"`
}

func (s ScheduleDef) ToModel() model.ScheduleConfig {
	return model.ScheduleConfig{
		WorkdaySeconds:    s.WorkdaySeconds,
		Break1:            s.Break1,
		Break2:            s.Break2,
		BreakDuration:     s.BreakDuration,
		ChargingThreshold: s.ChargingThreshold,
		ChargingRateKW:    s.ChargingRateKW,
	}
}

// Expected holds the checks of a fixture. Nil fields are not checked.
type Expected struct {
	PeakPowerKW     *float64 `yaml:"peak_power_kw,omitempty"`
	MaxOccupied     *int     `yaml:"max_occupied,omitempty"`
	MinMaxQueued    *int     `yaml:"min_max_queued,omitempty"`
	StallTicks      *int     `yaml:"stall_ticks,omitempty"`
	MinStallTicks   *int     `yaml:"min_stall_ticks,omitempty"`
	MinProductivity *float64 `yaml:"min_productivity,omitempty"`
	MaxProductivity *float64 `yaml:"max_productivity,omitempty"`
}

type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Chargers    int         `yaml:"chargers"`
	BaseLoadKW  float64     `yaml:"base_load_kw"`
	Profile     []float64   `yaml:"profile"`
	Schedule    ScheduleDef `yaml:"schedule"`
	Fleet       FleetDef    `yaml:"fleet"`
	Expected    Expected    `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

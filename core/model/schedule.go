package model

import "fmt"

// FinalWindowSeconds is the length of the end-of-day window in which machines no
// longer go to a charger when they drop below the threshold.
const FinalWindowSeconds = 1800

// ScheduleConfig holds the workday layout and the charging policy. All times are
// seconds from the start of the workday.
type ScheduleConfig struct {
	WorkdaySeconds    int64   `json:"workday_seconds"`
	Break1            int64   `json:"break_1"`
	Break2            int64   `json:"break_2"`
	BreakDuration     int64   `json:"break_duration"`
	ChargingThreshold float64 `json:"charging_threshold"` // fraction of capacity in [0,1]
	ChargingRateKW    float64 `json:"charging_rate_kw"`   // power drawn by one charger bay
}

// NoChargingCutoff returns the time after which threshold charging is suspended.
func (s ScheduleConfig) NoChargingCutoff() int64 {
	return s.WorkdaySeconds - FinalWindowSeconds
}

// IsBreakStart reports whether t is exactly the start of a break.
func (s ScheduleConfig) IsBreakStart(t int64) bool {
	return t == s.Break1 || t == s.Break2
}

// InBreak reports whether t falls in [break, break+duration) of either break.
func (s ScheduleConfig) InBreak(t int64) bool {
	return (t >= s.Break1 && t < s.Break1+s.BreakDuration) ||
		(t >= s.Break2 && t < s.Break2+s.BreakDuration)
}

// InOpenBreak reports whether t falls strictly inside either break window.
func (s ScheduleConfig) InOpenBreak(t int64) bool {
	return (t > s.Break1 && t < s.Break1+s.BreakDuration) ||
		(t > s.Break2 && t < s.Break2+s.BreakDuration)
}

// ChargePerTick is the energy in kWh a bay delivers during one second.
func (s ScheduleConfig) ChargePerTick() float64 { return s.ChargingRateKW / 3600 }

// PlannedWorkSeconds is the working time of one machine, breaks excluded.
func (s ScheduleConfig) PlannedWorkSeconds() int64 {
	planned := s.WorkdaySeconds - 2*s.BreakDuration
	if s.Break1 == s.Break2 {
		planned = s.WorkdaySeconds - s.BreakDuration
	}
	if planned < 0 {
		return 0
	}
	return planned
}

// Validate checks that the schedule describes a single consistent workday.
func (s ScheduleConfig) Validate() error {
	if s.WorkdaySeconds <= 0 {
		return fmt.Errorf("%w: workday must be positive", ErrInvalidConfig)
	}
	if s.BreakDuration <= 0 {
		return fmt.Errorf("%w: break duration must be positive", ErrInvalidConfig)
	}
	for _, b := range []int64{s.Break1, s.Break2} {
		if b < 0 || b >= s.WorkdaySeconds {
			return fmt.Errorf("%w: break at %d outside workday", ErrInvalidConfig, b)
		}
	}
	if s.ChargingThreshold < 0 || s.ChargingThreshold > 1 {
		return fmt.Errorf("%w: charging threshold %.3f not in [0,1]", ErrInvalidConfig, s.ChargingThreshold)
	}
	if s.ChargingRateKW < 0 {
		return fmt.Errorf("%w: charging rate must not be negative", ErrInvalidConfig)
	}
	return nil
}

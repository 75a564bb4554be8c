package agent

import (
	"github.com/kilianp07/ewsite/core/charger"
	"github.com/kilianp07/ewsite/core/logger"
	"github.com/kilianp07/ewsite/core/model"
	"github.com/kilianp07/ewsite/core/profile"
	"github.com/kilianp07/ewsite/core/telemetry"
)

// MinExcavatorDrawKWh is the smallest energy a working battery excavator takes
// from its battery in one tick.
const MinExcavatorDrawKWh = 0.001

// Env is what an agent sees of the worksite. The pool is the only shared
// mutable part and it is only touched from within engine steps.
type Env struct {
	Schedule model.ScheduleConfig
	Profile  *profile.Profile
	Pool     *charger.Pool
	Sink     telemetry.Sink
	Log      logger.Logger
}

func (e *Env) setDefaults() {
	if e.Log == nil {
		e.Log = logger.Nop{}
	}
	if e.Sink == nil {
		e.Sink = telemetry.SinkFunc(func(telemetry.Event) {})
	}
}

// breakEnd returns the end of the latest break window containing t, or t when
// t is outside every break.
func breakEnd(s model.ScheduleConfig, t int64) int64 {
	end := t
	for _, b := range []int64{s.Break1, s.Break2} {
		if t >= b && t < b+s.BreakDuration && b+s.BreakDuration > end {
			end = b + s.BreakDuration
		}
	}
	return end
}

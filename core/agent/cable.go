package agent

import (
	"github.com/kilianp07/ewsite/core/model"
	"github.com/kilianp07/ewsite/core/telemetry"
)

// CableAgent drives a cable-fed excavator. It has no battery and never uses a
// charger bay; outside breaks it draws profile[t]*rated power from the grid.
type CableAgent struct {
	m   *model.Machine
	env Env
}

// NewCableAgent binds m to env.
func NewCableAgent(m *model.Machine, env Env) *CableAgent {
	env.setDefaults()
	return &CableAgent{m: m, env: env}
}

// Machine returns a snapshot of the machine state.
func (a *CableAgent) Machine() model.Machine { return *a.m }

// Resume implements engine.Process.
func (a *CableAgent) Resume(now int64) (int64, bool) {
	if end := breakEnd(a.env.Schedule, now); end > now {
		return end - now, false
	}
	a.env.Sink.Emit(telemetry.Event{
		Kind:      telemetry.PowerDrawn,
		Time:      now,
		MachineID: a.m.ID,
		Type:      a.m.Type,
		Value:     a.env.Profile.At(now) * a.m.RatedPowerKW,
	})
	return 1, false
}

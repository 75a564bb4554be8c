package agent

import (
	"math"

	"github.com/kilianp07/ewsite/core/charger"
	"github.com/kilianp07/ewsite/core/model"
	"github.com/kilianp07/ewsite/core/telemetry"
)

type phase int

const (
	phaseStart phase = iota
	phaseWorking
	phaseAwaiting
	phaseCharging
)

// BatteryAgent drives a wheel loader, dumper or battery excavator.
//
// Every resume happens one tick after the previous one. The agent first acts
// for the tick that just elapsed, then samples its battery and the pool at the
// current time and sleeps one tick.
type BatteryAgent struct {
	m   *model.Machine
	env Env

	phase       phase
	req         *charger.Request
	sessionLeft int64
	afterBreak  bool
}

// NewBatteryAgent binds m to env. m must be a battery-backed machine.
func NewBatteryAgent(m *model.Machine, env Env) *BatteryAgent {
	env.setDefaults()
	return &BatteryAgent{m: m, env: env}
}

// Machine returns a snapshot of the machine state.
func (a *BatteryAgent) Machine() model.Machine { return *a.m }

// Resume implements engine.Process.
func (a *BatteryAgent) Resume(now int64) (int64, bool) {
	switch a.phase {
	case phaseStart:
		a.phase = phaseWorking
	case phaseWorking:
		if a.env.Schedule.IsBreakStart(now) && a.env.Pool.Capacity() > 0 {
			a.startSession(now, true)
		} else {
			a.work(now)
		}
	case phaseAwaiting:
		a.drawWhileQueued(now)
		if a.req.Granted() {
			a.beginCharging(now)
		}
	case phaseCharging:
		a.chargeTick(now)
		a.sessionLeft--
		if a.sessionLeft <= 0 {
			a.endSession(now)
			if a.afterBreak {
				a.work(now)
			}
		}
	}
	a.sample(now)
	return 1, false
}

// work applies the threshold policy for the tick ending at now.
func (a *BatteryAgent) work(now int64) {
	b := &a.m.Battery
	if b.LevelKWh > a.env.Schedule.ChargingThreshold*b.CapacityKWh {
		b.Draw(a.draw(now))
		a.setStatus(now, model.Working)
		return
	}
	if a.env.Pool.Capacity() == 0 {
		// no bay exists, the reserve below the threshold is never used
		a.stall(now)
		return
	}
	if now < a.env.Schedule.NoChargingCutoff() {
		a.startSession(now, false)
		return
	}
	// Final window: keep draining below the threshold while energy remains.
	// The excavator floor does not apply here.
	if need := a.need(now); b.Covers(need) {
		b.Draw(need)
		a.setStatus(now, model.Working)
		return
	}
	a.stall(now)
}

func (a *BatteryAgent) drawWhileQueued(now int64) {
	b := &a.m.Battery
	if b.Covers(a.need(now)) {
		b.Draw(a.draw(now))
		a.setStatus(now, model.AwaitingCharger)
		return
	}
	a.stall(now)
}

func (a *BatteryAgent) startSession(now int64, afterBreak bool) {
	a.afterBreak = afterBreak
	a.req = a.env.Pool.Request(a.m.ID)
	if a.req.Granted() {
		a.beginCharging(now)
		return
	}
	a.phase = phaseAwaiting
	a.setStatus(now, model.AwaitingCharger)
	a.env.Log.Debugw("machine queued for charger", map[string]any{
		"machine": a.m.ID, "time": now, "waiting": a.env.Pool.Waiting(),
	})
}

func (a *BatteryAgent) beginCharging(now int64) {
	a.phase = phaseCharging
	a.sessionLeft = a.env.Schedule.BreakDuration
	a.setStatus(now, model.Charging)
	a.env.Log.Debugw("charger granted", map[string]any{
		"machine": a.m.ID, "time": now, "level_kwh": a.m.Battery.LevelKWh, "after_break": a.afterBreak,
		"occupying": a.env.Pool.Occupying(),
	})
}

// chargeTick adds one tick of energy unless that would overshoot capacity. The
// bay draws its rated power from the grid either way.
func (a *BatteryAgent) chargeTick(now int64) {
	a.m.Battery.Charge(a.env.Schedule.ChargePerTick())
	a.env.Sink.Emit(telemetry.Event{
		Kind:      telemetry.PowerDrawn,
		Time:      now,
		MachineID: a.m.ID,
		Type:      a.m.Type,
		Value:     a.env.Schedule.ChargingRateKW,
	})
}

func (a *BatteryAgent) endSession(now int64) {
	next, err := a.env.Pool.Release(a.m.ID)
	if err != nil {
		a.env.Log.Errorf("release charger for %s: %v", a.m.ID, err)
	}
	a.env.Log.Debugw("charger released", map[string]any{
		"machine": a.m.ID, "time": now, "level_kwh": a.m.Battery.LevelKWh, "granted_to": next,
	})
	a.req = nil
	a.phase = phaseWorking
	a.setStatus(now, model.Working)
}

// stall marks the machine inactive for the tick that just elapsed.
func (a *BatteryAgent) stall(now int64) {
	a.setStatus(now, model.Inactive)
	a.env.Sink.Emit(telemetry.Event{Kind: telemetry.Stalled, Time: now - 1, MachineID: a.m.ID, Type: a.m.Type})
}

// need returns the energy the work of tick [now-1, now) requires.
func (a *BatteryAgent) need(now int64) float64 {
	if a.m.Type != model.ExcavatorBattery {
		return a.m.RatedPowerKW / 3600
	}
	return a.env.Profile.At(now-1) * a.m.RatedPowerKW / 3600
}

// draw is need raised to MinExcavatorDrawKWh for battery excavators.
func (a *BatteryAgent) draw(now int64) float64 {
	d := a.need(now)
	if a.m.Type == model.ExcavatorBattery {
		return math.Max(d, MinExcavatorDrawKWh)
	}
	return d
}

func (a *BatteryAgent) sample(now int64) {
	a.env.Sink.Emit(telemetry.Event{
		Kind:      telemetry.BatterySampled,
		Time:      now,
		MachineID: a.m.ID,
		Type:      a.m.Type,
		Value:     a.m.Battery.LevelKWh,
	})
	a.env.Sink.Emit(telemetry.Event{
		Kind:     telemetry.OccupancySampled,
		Time:     now,
		Occupied: a.env.Pool.Occupancy(),
		Queued:   a.env.Pool.QueueLen(),
	})
}

func (a *BatteryAgent) setStatus(now int64, s model.Status) {
	if a.m.Status == s {
		return
	}
	a.m.Status = s
	a.env.Sink.Emit(telemetry.Event{Kind: telemetry.StatusChanged, Time: now, MachineID: a.m.ID, Type: a.m.Type, Status: s})
}

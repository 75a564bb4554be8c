package worksite

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/ewsite/core/agent"
	"github.com/kilianp07/ewsite/core/charger"
	"github.com/kilianp07/ewsite/core/engine"
	"github.com/kilianp07/ewsite/core/logger"
	"github.com/kilianp07/ewsite/core/model"
	"github.com/kilianp07/ewsite/core/profile"
	"github.com/kilianp07/ewsite/core/telemetry"
)

// ErrAlreadyRun is returned by Run on a worksite that has already been run.
var ErrAlreadyRun = errors.New("worksite already run")

// Publisher receives status transitions while the run is in progress.
// eventbus.Bus satisfies it.
type Publisher interface {
	Publish(telemetry.Event)
}

// Option customises a Worksite.
type Option func(*Worksite)

// WithBaseLoad adds a constant site load in kW to every power sample.
func WithBaseLoad(kw float64) Option {
	return func(w *Worksite) { w.baseLoadKW = kw }
}

// WithLogger sets the logger used by the worksite and its agents.
func WithLogger(l logger.Logger) Option {
	return func(w *Worksite) {
		if l != nil {
			w.log = l
		}
	}
}

// WithEvents publishes every status transition to p.
func WithEvents(p Publisher) Option {
	return func(w *Worksite) { w.events = p }
}

type process interface {
	engine.Process
	Machine() model.Machine
}

// Worksite owns the engine, the charger pool and the telemetry log of a run.
type Worksite struct {
	fleet    model.FleetSpec
	sched    model.ScheduleConfig
	chargers int

	baseLoadKW float64
	log        logger.Logger
	events     Publisher

	eng    *engine.Engine
	pool   *charger.Pool
	tlog   *telemetry.Log
	agents []process
	ran    bool
}

// New validates the inputs and builds a worksite with every machine at full
// charge. Errors wrap model.ErrInvalidConfig. Zero chargers is accepted and
// models a site without charging infrastructure.
func New(fleet model.FleetSpec, sched model.ScheduleConfig, prof *profile.Profile, chargers int, opts ...Option) (*Worksite, error) {
	w := &Worksite{fleet: fleet, sched: sched, chargers: chargers, log: logger.Nop{}}
	for _, opt := range opts {
		opt(w)
	}
	if err := fleet.Validate(); err != nil {
		return nil, err
	}
	if err := sched.Validate(); err != nil {
		return nil, err
	}
	if prof == nil || prof.Len() == 0 {
		return nil, fmt.Errorf("%w: work-cycle profile is required", model.ErrInvalidConfig)
	}
	if chargers < 0 {
		return nil, fmt.Errorf("%w: charger capacity %d must not be negative", model.ErrInvalidConfig, chargers)
	}
	if w.baseLoadKW < 0 {
		return nil, fmt.Errorf("%w: base load %.3f kW must not be negative", model.ErrInvalidConfig, w.baseLoadKW)
	}

	pool, err := charger.NewPool(chargers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidConfig, err)
	}
	w.pool = pool
	w.eng = engine.New()
	w.tlog = telemetry.NewLog(sched.WorkdaySeconds, w.baseLoadKW)

	env := agent.Env{
		Schedule: sched,
		Profile:  prof,
		Pool:     pool,
		Sink:     w.sink(),
		Log:      w.log,
	}
	for _, t := range model.SpawnOrder {
		spec := fleet.Spec(t)
		for n := 1; n <= spec.Count; n++ {
			m := model.NewMachine(t, n, spec)
			var p process
			if t.HasBattery() {
				p = agent.NewBatteryAgent(m, env)
			} else {
				p = agent.NewCableAgent(m, env)
			}
			w.agents = append(w.agents, p)
			w.eng.Spawn(p)
		}
	}
	if chargers == 0 && fleet.BatteryMachines() > 0 {
		w.log.Warnf("worksite has %d battery machines and no charger", fleet.BatteryMachines())
	}
	w.log.Debugw("worksite built", map[string]any{
		"machines": len(w.agents),
		"chargers": chargers,
		"workday":  sched.WorkdaySeconds,
		"profile":  prof.MeanRatio(),
	})
	return w, nil
}

func (w *Worksite) sink() telemetry.Sink {
	if w.events == nil {
		return w.tlog
	}
	pub := telemetry.SinkFunc(func(ev telemetry.Event) {
		if ev.Kind == telemetry.StatusChanged {
			w.events.Publish(ev)
		}
	})
	return telemetry.Tee(w.tlog, pub)
}

// Run simulates the workday and returns the telemetry log. Nothing is
// scheduled at or after the end of the workday.
func (w *Worksite) Run(ctx context.Context) (*telemetry.Log, error) {
	if w.ran {
		return nil, ErrAlreadyRun
	}
	w.ran = true
	if err := w.eng.Run(ctx, w.sched.WorkdaySeconds); err != nil {
		return nil, fmt.Errorf("worksite run: %w", err)
	}
	w.log.Debugw("engine stopped", map[string]any{"time": w.eng.CurrentTime(), "pending": w.eng.Pending()})
	sum := telemetry.Summarize(w.tlog, w.Accounting())
	w.log.Infow("worksite run complete", map[string]any{
		"machines":      len(w.agents),
		"chargers":      w.chargers,
		"peak_power_kw": sum.PeakPowerKW,
		"energy_kwh":    sum.EnergyKWh,
		"productivity":  sum.Productivity,
	})
	return w.tlog, nil
}

// Accounting describes the fleet for telemetry.Summarize and Log.Frames.
func (w *Worksite) Accounting() telemetry.Accounting {
	return telemetry.Accounting{
		TotalMachines: w.fleet.Total(),
		CableMachines: w.fleet.ExcavatorsCable.Count,
		Schedule:      w.sched,
	}
}

// Machines returns a snapshot of every machine in spawn order.
func (w *Worksite) Machines() []model.Machine {
	out := make([]model.Machine, len(w.agents))
	for i, a := range w.agents {
		out[i] = a.Machine()
	}
	return out
}

// Chargers returns the size of the charger pool.
func (w *Worksite) Chargers() int { return w.pool.Capacity() }

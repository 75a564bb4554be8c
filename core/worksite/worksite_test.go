package worksite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ewsite/core/model"
	"github.com/kilianp07/ewsite/core/profile"
	"github.com/kilianp07/ewsite/core/telemetry"
)

func mixedFleet() model.FleetSpec {
	return model.FleetSpec{
		WheelLoaders:      model.MachineSpec{Count: 2, BatteryKWh: 5, RatedPowerKW: 300},
		Dumpers:           model.MachineSpec{Count: 2, BatteryKWh: 8, RatedPowerKW: 250},
		ExcavatorsBattery: model.MachineSpec{Count: 1, BatteryKWh: 6, RatedPowerKW: 400},
		ExcavatorsCable:   model.MachineSpec{Count: 1, RatedPowerKW: 500},
	}
}

func shortDay() model.ScheduleConfig {
	return model.ScheduleConfig{
		WorkdaySeconds:    3600,
		Break1:            1200,
		Break2:            2400,
		BreakDuration:     120,
		ChargingThreshold: 0.2,
		ChargingRateKW:    150,
	}
}

func testProfile(t *testing.T) *profile.Profile {
	t.Helper()
	p, err := profile.New([]float64{0.2, 0.8, 0.5})
	require.NoError(t, err)
	return p
}

type recorder struct{ events []telemetry.Event }

func (r *recorder) Publish(ev telemetry.Event) { r.events = append(r.events, ev) }

func TestNewSpawnsInFixedTypeOrder(t *testing.T) {
	fleet := model.FleetSpec{
		WheelLoaders:      model.MachineSpec{Count: 2, BatteryKWh: 1, RatedPowerKW: 1},
		Dumpers:           model.MachineSpec{Count: 1, BatteryKWh: 1, RatedPowerKW: 1},
		ExcavatorsBattery: model.MachineSpec{Count: 1, BatteryKWh: 1, RatedPowerKW: 1},
		ExcavatorsCable:   model.MachineSpec{Count: 1, RatedPowerKW: 1},
	}
	w, err := New(fleet, shortDay(), testProfile(t), 1)
	require.NoError(t, err)

	var ids []string
	for _, m := range w.Machines() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"EX #1", "EX_C #1", "DU #1", "WL #1", "WL #2"}, ids)
	for _, m := range w.Machines() {
		assert.Equal(t, m.Battery.CapacityKWh, m.Battery.LevelKWh, "%s starts full", m.ID)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	run := func() *telemetry.Log {
		w, err := New(mixedFleet(), shortDay(), testProfile(t), 1, WithBaseLoad(20))
		require.NoError(t, err)
		l, err := w.Run(context.Background())
		require.NoError(t, err)
		return l
	}
	a, b := run(), run()
	assert.Equal(t, a.BatterySamples, b.BatterySamples)
	assert.Equal(t, a.PowerSeries(), b.PowerSeries())
	assert.Equal(t, a.OccupancySeries(), b.OccupancySeries())
	assert.Equal(t, a.StallSeries(), b.StallSeries())
	assert.Equal(t, a.Transitions, b.Transitions)
}

func TestRunInvariants(t *testing.T) {
	for _, chargers := range []int{0, 1, 2, 10} {
		fleet := mixedFleet()
		w, err := New(fleet, shortDay(), testProfile(t), chargers)
		require.NoError(t, err)
		l, err := w.Run(context.Background())
		require.NoError(t, err)

		for ts, n := range l.Occupancy {
			assert.LessOrEqual(t, n, chargers, "chargers=%d t=%d", chargers, ts)
			assert.Less(t, ts, int64(3600))
		}
		caps := map[string]float64{}
		for _, m := range w.Machines() {
			caps[m.ID] = m.Battery.CapacityKWh
		}
		for _, s := range l.BatterySamples {
			assert.GreaterOrEqual(t, s.LevelKWh, 0.0, "%s at %d", s.MachineID, s.Time)
			assert.LessOrEqual(t, s.LevelKWh, caps[s.MachineID], "%s at %d", s.MachineID, s.Time)
			assert.Less(t, s.Time, int64(3600))
		}
		for ts := range l.Power {
			assert.Less(t, ts, int64(3600))
		}
		assert.Len(t, l.PowerSeries(), 3600)
	}
}

func TestRunOnlyOnce(t *testing.T) {
	w, err := New(mixedFleet(), shortDay(), testProfile(t), 1)
	require.NoError(t, err)
	_, err = w.Run(context.Background())
	require.NoError(t, err)
	_, err = w.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRun)
}

func TestRunCanceled(t *testing.T) {
	w, err := New(mixedFleet(), shortDay(), testProfile(t), 1)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l, err := w.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, l)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	prof := testProfile(t)
	cases := map[string]func() (*Worksite, error){
		"negative count": func() (*Worksite, error) {
			f := mixedFleet()
			f.Dumpers.Count = -1
			return New(f, shortDay(), prof, 1)
		},
		"threshold above one": func() (*Worksite, error) {
			s := shortDay()
			s.ChargingThreshold = 1.5
			return New(mixedFleet(), s, prof, 1)
		},
		"break after workday": func() (*Worksite, error) {
			s := shortDay()
			s.Break2 = 4000
			return New(mixedFleet(), s, prof, 1)
		},
		"zero workday": func() (*Worksite, error) {
			s := shortDay()
			s.WorkdaySeconds = 0
			return New(mixedFleet(), s, prof, 1)
		},
		"missing profile": func() (*Worksite, error) {
			return New(mixedFleet(), shortDay(), nil, 1)
		},
		"negative chargers": func() (*Worksite, error) {
			return New(mixedFleet(), shortDay(), prof, -1)
		},
		"negative base load": func() (*Worksite, error) {
			return New(mixedFleet(), shortDay(), prof, 1, WithBaseLoad(-5))
		},
	}
	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			w, err := build()
			assert.ErrorIs(t, err, model.ErrInvalidConfig)
			assert.Nil(t, w)
		})
	}
}

func TestOnlyTransitionsArePublished(t *testing.T) {
	rec := &recorder{}
	w, err := New(mixedFleet(), shortDay(), testProfile(t), 0, WithEvents(rec))
	require.NoError(t, err)
	l, err := w.Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, rec.events)
	for _, ev := range rec.events {
		assert.Equal(t, telemetry.StatusChanged, ev.Kind, "unexpected event kind %s", ev.Kind)
	}
	assert.Len(t, rec.events, len(l.Transitions))
	// stalls stay in the log and reach sinks through the summary
	assert.Positive(t, telemetry.Summarize(l, w.Accounting()).StallTicks, "no charger means battery machines stall")
}

func TestBaseLoadOnlySite(t *testing.T) {
	fleet := model.FleetSpec{ExcavatorsCable: model.MachineSpec{Count: 2, RatedPowerKW: 100}}
	prof, err := profile.New([]float64{0})
	require.NoError(t, err)
	w, err := New(fleet, shortDay(), prof, 0, WithBaseLoad(50))
	require.NoError(t, err)
	l, err := w.Run(context.Background())
	require.NoError(t, err)
	for _, p := range l.PowerSeries() {
		assert.Equal(t, 50.0, p)
	}
	sum := telemetry.Summarize(l, w.Accounting())
	assert.Equal(t, 50.0, sum.PeakPowerKW)
	assert.InDelta(t, 50.0, sum.EnergyKWh, 1e-9)
}

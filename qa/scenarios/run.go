package scenarios

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corelogger "github.com/kilianp07/ewsite/core/logger"
	coremetrics "github.com/kilianp07/ewsite/core/metrics"
	"github.com/kilianp07/ewsite/core/model"
	"github.com/kilianp07/ewsite/core/profile"
	"github.com/kilianp07/ewsite/core/telemetry"
	"github.com/kilianp07/ewsite/core/worksite"
	"github.com/kilianp07/ewsite/infra/metrics"
)

func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	prof, err := profile.New(sc.Profile)
	require.NoError(t, err)
	fleet := sc.Fleet.ToModel()
	sched := sc.Schedule.ToModel()
	ws, err := worksite.New(fleet, sched, prof, sc.Chargers,
		worksite.WithBaseLoad(sc.BaseLoadKW),
		worksite.WithLogger(corelogger.Nop{}),
	)
	require.NoError(t, err)
	log, err := ws.Run(context.Background())
	require.NoError(t, err)

	acc := ws.Accounting()
	sum := telemetry.Summarize(log, acc)
	res := coremetrics.RunResult{Scenario: sc.Name, Chargers: sc.Chargers, Machines: fleet.Total(), Summary: sum}
	require.NoError(t, sink.RecordRun(res))
	require.NoError(t, sink.RecordSeries(res, log.Frames(acc)))
	n, err := testutil.GatherAndCount(reg, "ewsite_runs_total", "ewsite_grid_power_kw")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	checkInvariants(t, sc, ws.Machines(), log)

	exp := sc.Expected
	if exp.PeakPowerKW != nil {
		assert.InDelta(t, *exp.PeakPowerKW, sum.PeakPowerKW, 1e-9, "peak power")
	}
	if exp.MaxOccupied != nil {
		assert.Equal(t, *exp.MaxOccupied, sum.MaxOccupied, "max occupied")
	}
	if exp.MinMaxQueued != nil {
		assert.GreaterOrEqual(t, sum.MaxQueued, *exp.MinMaxQueued, "max queued")
	}
	if exp.StallTicks != nil {
		assert.Equal(t, *exp.StallTicks, sum.StallTicks, "stall ticks")
	}
	if exp.MinStallTicks != nil {
		assert.GreaterOrEqual(t, sum.StallTicks, *exp.MinStallTicks, "stall ticks")
	}
	if exp.MinProductivity != nil {
		assert.GreaterOrEqual(t, sum.Productivity, *exp.MinProductivity, "productivity")
	}
	if exp.MaxProductivity != nil {
		assert.LessOrEqual(t, sum.Productivity, *exp.MaxProductivity, "productivity")
	}
}

func checkInvariants(t *testing.T, sc *Scenario, machines []model.Machine, log *telemetry.Log) {
	for ts, n := range log.Occupancy {
		if n > sc.Chargers {
			t.Errorf("%s: occupancy %d above capacity %d at %d", sc.Name, n, sc.Chargers, ts)
		}
	}
	capacity := make(map[string]float64, len(machines))
	for _, m := range machines {
		capacity[m.ID] = m.Battery.CapacityKWh
	}
	for _, s := range log.BatterySamples {
		if s.LevelKWh < 0 || s.LevelKWh > capacity[s.MachineID]+1e-9 {
			t.Errorf("%s: level %.4f of %s out of range at %d", sc.Name, s.LevelKWh, s.MachineID, s.Time)
		}
	}
}

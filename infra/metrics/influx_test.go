package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/ewsite/core/metrics"
	"github.com/kilianp07/ewsite/core/telemetry"
)

type lineServer struct {
	mu    sync.Mutex
	lines []string
	srv   *httptest.Server
}

func newLineServer(t *testing.T) *lineServer {
	ls := &lineServer{}
	ls.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		ls.mu.Lock()
		for _, l := range strings.Split(strings.TrimSpace(string(data)), "\n") {
			if l != "" {
				ls.lines = append(ls.lines, l)
			}
		}
		ls.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(ls.srv.Close)
	return ls
}

func lineOf(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSinkRecordRun(t *testing.T) {
	ls := newLineServer(t)
	sink := NewInfluxSink(ls.srv.URL, "token", "org", "bucket")
	defer sink.Close()

	start := time.Date(2024, 5, 6, 7, 0, 0, 0, time.UTC)
	res := coremetrics.RunResult{
		RunID: "r1", Scenario: "MED6B150", Chargers: 2, Machines: 6, StartedAt: start,
		Summary: telemetry.Summary{PeakPowerKW: 450.12345, MeanPowerKW: 200, EnergyKWh: 1800, Productivity: 0.9, StallTicks: 3},
	}
	require.NoError(t, sink.RecordRun(res))

	p := write.NewPointWithMeasurement("worksite_run").
		AddTag("scenario", "MED6B150").
		AddTag("run_id", "r1").
		AddField("chargers", 2).
		AddField("machines", 6).
		AddField("peak_power_kw", 450.123).
		AddField("mean_power_kw", 200.0).
		AddField("energy_kwh", 1800.0).
		AddField("productivity", 0.9).
		AddField("stall_seconds", 3).
		SetTime(start)
	assert.Equal(t, []string{lineOf(p)}, ls.lines)
}

func TestInfluxSinkRecordSeriesOnTimeline(t *testing.T) {
	ls := newLineServer(t)
	sink := NewInfluxSink(ls.srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()

	origin := time.Date(2024, 5, 6, 7, 0, 0, 0, time.UTC)
	res := coremetrics.RunResult{RunID: "r1", Scenario: "s", Origin: origin}
	frames := []telemetry.Frame{
		{Time: 0, PowerKW: 20, Active: 3},
		{Time: 1, PowerKW: 170, Occupied: 1, Active: 2},
	}
	require.NoError(t, sink.RecordSeries(res, frames))
	require.Len(t, ls.lines, 2)
	assert.Equal(t, lineOf(seriesPoint(res, frames[1])), ls.lines[1])
	assert.True(t, strings.HasSuffix(ls.lines[1], " "+itoa(origin.Add(time.Second).UnixNano())))
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	assert.IsType(t, coremetrics.NopSink{}, sink)
	assert.True(t, called)
}

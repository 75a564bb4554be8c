package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/ewsite/core/metrics"
	"github.com/kilianp07/ewsite/core/telemetry"
	"github.com/kilianp07/ewsite/infra/logger"
)

// influxBatch bounds the number of points sent in one write request.
const influxBatch = 5000

// InfluxSink writes run summaries and per-second series to InfluxDB. Series
// points are stamped on the run's wall-clock timeline so a workday can be
// browsed like a real one.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 10 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.RunSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes one worksite_run point stamped at the run start.
func (s *InfluxSink) RecordRun(res coremetrics.RunResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sum := res.Summary
	p := write.NewPointWithMeasurement("worksite_run").
		AddTag("scenario", res.Scenario).
		AddTag("run_id", res.RunID).
		AddField("chargers", res.Chargers).
		AddField("machines", res.Machines).
		AddField("peak_power_kw", round3(sum.PeakPowerKW)).
		AddField("mean_power_kw", round3(sum.MeanPowerKW)).
		AddField("energy_kwh", round3(sum.EnergyKWh)).
		AddField("productivity", round3(sum.Productivity)).
		AddField("stall_seconds", sum.StallTicks).
		SetTime(res.StartedAt)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSeries writes one worksite_power point per simulated second.
func (s *InfluxSink) RecordSeries(res coremetrics.RunResult, frames []telemetry.Frame) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	batch := make([]*write.Point, 0, min(len(frames), influxBatch))
	for _, f := range frames {
		batch = append(batch, seriesPoint(res, f))
		if len(batch) == influxBatch {
			if err := s.writeAPI.WritePoint(ctx, batch...); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) == 0 {
		return nil
	}
	return s.writeAPI.WritePoint(ctx, batch...)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func seriesPoint(res coremetrics.RunResult, f telemetry.Frame) *write.Point {
	return write.NewPointWithMeasurement("worksite_power").
		AddTag("scenario", res.Scenario).
		AddTag("run_id", res.RunID).
		AddField("power_kw", round3(f.PowerKW)).
		AddField("occupied", f.Occupied).
		AddField("queued", f.Queued).
		AddField("stalled", f.Stalled).
		AddField("active", f.Active).
		SetTime(res.At(f.Time))
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

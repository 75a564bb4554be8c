package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/ewsite/core/metrics"
	"github.com/kilianp07/ewsite/core/model"
	"github.com/kilianp07/ewsite/core/telemetry"
	"github.com/kilianp07/ewsite/internal/eventbus"
)

type statusSink struct {
	coremetrics.NopSink
	mu     sync.Mutex
	events []coremetrics.StatusEvent
}

func (s *statusSink) RecordStatus(ev coremetrics.StatusEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func TestStatusCollectorForwardsTransitions(t *testing.T) {
	bus := eventbus.New[telemetry.Event](16)
	sink := &statusSink{}
	done := StartStatusCollector(context.Background(), bus, "MED6B150", sink)

	bus.Publish(telemetry.Event{Kind: telemetry.Stalled, Time: 4, MachineID: "WL #1"})
	bus.Publish(telemetry.Event{Kind: telemetry.StatusChanged, Time: 5, MachineID: "WL #1", Type: model.WheelLoader, Status: model.Inactive})
	bus.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
	require.Len(t, sink.events, 1)
	assert.Equal(t, coremetrics.StatusEvent{
		Scenario: "MED6B150", MachineID: "WL #1", Type: model.WheelLoader, Status: model.Inactive, SimTime: 5,
	}, sink.events[0])
}

func TestStatusCollectorWithoutRecorder(t *testing.T) {
	bus := eventbus.New[telemetry.Event](1)
	done := StartStatusCollector(context.Background(), bus, "s", runOnlySink{})
	_, open := <-done
	assert.False(t, open)
}

type runOnlySink struct{}

func (runOnlySink) RecordRun(coremetrics.RunResult) error { return nil }

package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/ewsite/core/metrics"
	"github.com/kilianp07/ewsite/core/telemetry"
	"github.com/kilianp07/ewsite/infra/logger"
	"github.com/kilianp07/ewsite/internal/eventbus"
)

// StartStatusCollector forwards status changes published on bus to sink when
// it is a StatusRecorder. The returned channel is closed once the collector
// has stopped, which happens when ctx is canceled or the bus is closed.
func StartStatusCollector(ctx context.Context, bus *eventbus.Bus[telemetry.Event], scenario string, sink coremetrics.RunSink) <-chan struct{} {
	done := make(chan struct{})
	rec, ok := sink.(coremetrics.StatusRecorder)
	if bus == nil || !ok {
		close(done)
		return done
	}
	sub := bus.Subscribe(func(ev telemetry.Event) bool { return ev.Kind == telemetry.StatusChanged })
	log := logger.New("status-collector")
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				err := rec.RecordStatus(coremetrics.StatusEvent{
					Scenario:  scenario,
					MachineID: ev.MachineID,
					Type:      ev.Type,
					Status:    ev.Status,
					SimTime:   ev.Time,
				})
				if err != nil {
					log.Warnf("record status of %s: %v", ev.MachineID, err)
				}
			}
		}
	}()
	return done
}

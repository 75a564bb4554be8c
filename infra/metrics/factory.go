package metrics

import (
	"github.com/kilianp07/ewsite/core/factory"
	coremetrics "github.com/kilianp07/ewsite/core/metrics"
	"github.com/kilianp07/ewsite/infra/mqtt"
)

// init registers built-in run sinks.
func init() {
	_ = coremetrics.RegisterRunSink("nop", func(map[string]any) (coremetrics.RunSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterRunSink("prometheus", func(map[string]any) (coremetrics.RunSink, error) {
		s, err := NewPromSink()
		if err != nil {
			return nil, err
		}
		return s, nil
	})

	_ = coremetrics.RegisterRunSink("influx", func(conf map[string]any) (coremetrics.RunSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})

	_ = coremetrics.RegisterRunSink("mqtt", func(conf map[string]any) (coremetrics.RunSink, error) {
		var c mqtt.Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		p, err := mqtt.NewPublisher(c)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}

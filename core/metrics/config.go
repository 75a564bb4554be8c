package metrics

import "github.com/kilianp07/ewsite/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PromAddr, when set, serves the Prometheus registry on this address.
	PromAddr string `json:"prom_addr"`
}

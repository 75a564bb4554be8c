// Package metrics holds the RunSink implementations: Prometheus gauges and
// histograms, InfluxDB points on the simulated timeline, and the MQTT summary
// publisher. Importing the package registers them with core/metrics.
package metrics

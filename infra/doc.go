// Package infra contains technical adapters such as the zerolog logger,
// the MQTT publisher, metrics sinks and run stores. These packages should
// depend only on the interfaces defined in the core packages.
package infra

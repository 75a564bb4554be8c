// Package factory builds pluggable modules, such as metrics sinks, from
// configuration. A module is named by a type string and configured with a map
// of raw settings that its factory decodes with Decode.
//
//	reg := factory.NewRegistry[metrics.RunSink]()
//	_ = reg.Register("nop", func(map[string]any) (metrics.RunSink, error) {
//	    return metrics.NopSink{}, nil
//	})
//	sink, err := reg.Create(factory.ModuleConfig{Type: "nop"})
package factory

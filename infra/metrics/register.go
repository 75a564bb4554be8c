package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// register adds c to reg, returning the collector already registered under
// the same descriptor when there is one.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return c, err
		}
		existing, ok := are.ExistingCollector.(C)
		if !ok {
			return c, fmt.Errorf("collector registered with a different type: %T", are.ExistingCollector)
		}
		return existing, nil
	}
	return c, nil
}

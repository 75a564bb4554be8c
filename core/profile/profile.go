// Package profile holds the work-cycle profile: a repeating sequence of power
// ratios that models one digging or loading cycle of an excavator.
package profile

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrEmpty is returned when a profile has no steps.
var ErrEmpty = errors.New("work-cycle profile is empty")

// Profile is an immutable cyclic sequence of non-negative power ratios.
// One step lasts one second of simulated time.
type Profile struct {
	ratios []float64
}

// New copies ratios into a Profile after validating them.
func New(ratios []float64) (*Profile, error) {
	if len(ratios) == 0 {
		return nil, ErrEmpty
	}
	cp := make([]float64, len(ratios))
	for i, r := range ratios {
		if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
			return nil, fmt.Errorf("step %d: invalid ratio %v", i, r)
		}
		cp[i] = r
	}
	return &Profile{ratios: cp}, nil
}

// Len returns the number of steps in one cycle.
func (p *Profile) Len() int { return len(p.ratios) }

// At returns the ratio for second t, wrapping around the cycle.
func (p *Profile) At(t int64) float64 {
	n := int64(len(p.ratios))
	i := t % n
	if i < 0 {
		i += n
	}
	return p.ratios[i]
}

// Ratios returns a copy of the cycle.
func (p *Profile) Ratios() []float64 {
	cp := make([]float64, len(p.ratios))
	copy(cp, p.ratios)
	return cp
}

// MeanRatio is the average ratio over one cycle.
func (p *Profile) MeanRatio() float64 { return stat.Mean(p.ratios, nil) }


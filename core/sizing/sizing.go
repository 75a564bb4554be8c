// Package sizing estimates battery capacity from machine weight with a linear
// fit over reference machines.
package sizing

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/ewsite/core/model"
)

// ErrTooFewPoints is returned when a fit has fewer than two distinct weights.
var ErrTooFewPoints = errors.New("sizing: at least two reference machines with distinct weights are required")

// Reference is a known machine: its operating weight and battery capacity.
type Reference struct {
	WeightKG   float64 `json:"weight_kg"`
	BatteryKWh float64 `json:"battery_kwh"`
}

// ReferenceExcavators are electrified excavators on the market.
var ReferenceExcavators = []Reference{
	{24550, 264}, {2730, 20}, {1830, 16}, {1960, 20},
	{1201, 12.7}, {1907, 17.3}, {11900, 150}, {25400, 300},
}

// ReferenceLoaders are electrified wheel loaders and dumpers on the market.
var ReferenceLoaders = []Reference{
	{4550, 40}, {5085, 40}, {20300, 237}, {6005, 64}, {2260, 23.4}, {2950, 28},
	{5200, 141}, {18000, 282}, {900, 6}, {1120, 9}, {19000, 282},
}

// Fit is capacity = Intercept + Slope*weight.
type Fit struct {
	Intercept float64
	Slope     float64
	RSquared  float64
}

// NewFit regresses battery capacity on weight.
func NewFit(refs []Reference) (Fit, error) {
	if len(refs) < 2 {
		return Fit{}, ErrTooFewPoints
	}
	xs := make([]float64, len(refs))
	ys := make([]float64, len(refs))
	distinct := false
	for i, r := range refs {
		xs[i], ys[i] = r.WeightKG, r.BatteryKWh
		if xs[i] != xs[0] {
			distinct = true
		}
	}
	if !distinct {
		return Fit{}, ErrTooFewPoints
	}
	a, b := stat.LinearRegression(xs, ys, nil, false)
	return Fit{Intercept: a, Slope: b, RSquared: stat.RSquared(xs, ys, nil, a, b)}, nil
}

// Estimate returns the capacity predicted for weightKG, never below zero.
func (f Fit) Estimate(weightKG float64) float64 {
	c := f.Intercept + f.Slope*weightKG
	if c < 0 {
		return 0
	}
	return c
}

// Estimator holds one fit per machine family.
type Estimator struct {
	excavators Fit
	loaders    Fit
}

// NewEstimator fits the built-in reference sets.
func NewEstimator() (*Estimator, error) {
	return NewEstimatorFrom(ReferenceExcavators, ReferenceLoaders)
}

// NewEstimatorFrom fits the given reference sets.
func NewEstimatorFrom(excavators, loaders []Reference) (*Estimator, error) {
	ex, err := NewFit(excavators)
	if err != nil {
		return nil, fmt.Errorf("excavator fit: %w", err)
	}
	wl, err := NewFit(loaders)
	if err != nil {
		return nil, fmt.Errorf("loader fit: %w", err)
	}
	return &Estimator{excavators: ex, loaders: wl}, nil
}

// Fit returns the fit used for machines of type t.
func (e *Estimator) Fit(t model.MachineType) Fit {
	if t == model.ExcavatorBattery || t == model.ExcavatorCable {
		return e.excavators
	}
	return e.loaders
}

// BatteryKWh estimates the battery capacity of a machine of type t.
func (e *Estimator) BatteryKWh(t model.MachineType, weightKG float64) float64 {
	return e.Fit(t).Estimate(weightKG)
}

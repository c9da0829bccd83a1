// Package calibration builds market curves so that a set of instruments reprices
// to their market values.
package calibration

import (
	"errors"
	"fmt"

	"github.com/meenmo/mocurve/curve"
	"github.com/meenmo/mocurve/instrument"
	"github.com/meenmo/mocurve/interp"
	"github.com/meenmo/mocurve/market"
	"github.com/meenmo/mocurve/money"
)

var (
	ErrInvalidConfiguration = errors.New("invalid calibration configuration")
	ErrCalibrationFailed    = errors.New("calibration failed")
)

// DataBundle describes one calibration problem. Curve i has NodeTimes[i] and
// Interpolators[i] and takes its node values from the slice of the solver vector
// that follows the nodes of curves 0..i-1. The refs tell which role each solved
// curve plays in the market; a curve may play several.
type DataBundle struct {
	KnownMarket *market.Bundle
	Instruments []instrument.Instrument
	// MarketValues are the target present values. Nil means all zero.
	MarketValues []float64

	CurveNames    []string
	NodeTimes     [][]float64
	Interpolators []interp.Interpolator

	DiscountingRefs map[money.Currency]int
	ForwardRefs     map[string]int
	PriceIndexRefs  map[string]int
}

// NumberOfNodes is the dimension of the solver vector.
func (d *DataBundle) NumberOfNodes() int {
	n := 0
	for _, times := range d.NodeTimes {
		n += len(times)
	}
	return n
}

// Validate checks that the problem is square and every reference points at a solved curve.
func (d *DataBundle) Validate() error {
	if d == nil {
		return fmt.Errorf("Validate: %w: nil data bundle", ErrInvalidConfiguration)
	}
	nCurves := len(d.CurveNames)
	if nCurves == 0 {
		return fmt.Errorf("Validate: %w: no curves", ErrInvalidConfiguration)
	}
	if len(d.NodeTimes) != nCurves || len(d.Interpolators) != nCurves {
		return fmt.Errorf("Validate: %w: %d curve names, %d node vectors, %d interpolators",
			ErrInvalidConfiguration, nCurves, len(d.NodeTimes), len(d.Interpolators))
	}
	if n := d.NumberOfNodes(); n != len(d.Instruments) {
		return fmt.Errorf("Validate: %w: %d nodes for %d instruments", ErrInvalidConfiguration, n, len(d.Instruments))
	}
	if d.MarketValues != nil && len(d.MarketValues) != len(d.Instruments) {
		return fmt.Errorf("Validate: %w: %d market values for %d instruments",
			ErrInvalidConfiguration, len(d.MarketValues), len(d.Instruments))
	}
	for i, inst := range d.Instruments {
		if inst == nil {
			return fmt.Errorf("Validate: %w: instrument %d is nil", ErrInvalidConfiguration, i)
		}
	}

	used := make([]bool, nCurves)
	check := func(i int, role string) error {
		if i < 0 || i >= nCurves {
			return fmt.Errorf("Validate: %w: %s refers to curve %d of %d", ErrInvalidConfiguration, role, i, nCurves)
		}
		used[i] = true
		return nil
	}
	for ccy, i := range d.DiscountingRefs {
		if err := check(i, "discounting "+string(ccy)); err != nil {
			return err
		}
	}
	for index, i := range d.ForwardRefs {
		if err := check(i, "forward "+index); err != nil {
			return err
		}
	}
	for index, i := range d.PriceIndexRefs {
		if err := check(i, "price index "+index); err != nil {
			return err
		}
	}
	for i, name := range d.CurveNames {
		if !used[i] {
			return fmt.Errorf("Validate: %w: curve %q is not referenced", ErrInvalidConfiguration, name)
		}
		if len(d.NodeTimes[i]) == 0 {
			return fmt.Errorf("Validate: %w: curve %q has no nodes", ErrInvalidConfiguration, name)
		}
		if d.Interpolators[i] == nil {
			return fmt.Errorf("Validate: %w: curve %q has no interpolator", ErrInvalidConfiguration, name)
		}
		for k := 1; k < len(d.NodeTimes[i]); k++ {
			if d.NodeTimes[i][k] <= d.NodeTimes[i][k-1] {
				return fmt.Errorf("Validate: %w: curve %q node times not increasing at %d",
					ErrInvalidConfiguration, name, k)
			}
		}
	}
	for index, i := range d.PriceIndexRefs {
		for ccy, j := range d.DiscountingRefs {
			if i == j {
				return fmt.Errorf("Validate: %w: curve %q used for price index %s and discounting %s",
					ErrInvalidConfiguration, d.CurveNames[i], index, ccy)
			}
		}
		for fwd, j := range d.ForwardRefs {
			if i == j {
				return fmt.Errorf("Validate: %w: curve %q used for price index %s and forward %s",
					ErrInvalidConfiguration, d.CurveNames[i], index, fwd)
			}
		}
	}
	return nil
}

// marketValue returns the target of instrument i.
func (d *DataBundle) marketValue(i int) float64 {
	if d.MarketValues == nil {
		return 0
	}
	return d.MarketValues[i]
}

// BuildMarket creates the trial curves from x and lays them over the known market.
// It never modifies the known market.
func BuildMarket(d *DataBundle, x []float64) (*market.Bundle, error) {
	if len(x) != d.NumberOfNodes() {
		return nil, fmt.Errorf("BuildMarket: %w: %d values for %d nodes", ErrInvalidConfiguration, len(x), d.NumberOfNodes())
	}
	isPriceIndex := make(map[int]bool, len(d.PriceIndexRefs))
	for _, i := range d.PriceIndexRefs {
		isPriceIndex[i] = true
	}

	yields := make([]*curve.YieldCurve, len(d.CurveNames))
	indexes := make([]*curve.PriceIndexCurve, len(d.CurveNames))
	offset := 0
	for i, name := range d.CurveNames {
		n := len(d.NodeTimes[i])
		values := x[offset : offset+n]
		offset += n
		var err error
		if isPriceIndex[i] {
			indexes[i], err = curve.NewPriceIndexCurve(name, d.NodeTimes[i], values, d.Interpolators[i])
		} else {
			yields[i], err = curve.NewYieldCurve(name, d.NodeTimes[i], values, d.Interpolators[i])
		}
		if err != nil {
			return nil, fmt.Errorf("BuildMarket: %w", err)
		}
	}

	out := d.KnownMarket.Copy()
	for ccy, i := range d.DiscountingRefs {
		out = out.WithDiscountCurve(ccy, yields[i])
	}
	for index, i := range d.ForwardRefs {
		out = out.WithForwardCurve(index, yields[i])
	}
	for index, i := range d.PriceIndexRefs {
		out = out.WithPriceIndexCurve(index, indexes[i])
	}
	return out, nil
}

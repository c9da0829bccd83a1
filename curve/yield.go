package curve

import (
	"math"

	"github.com/meenmo/mocurve/interp"
)

// YieldCurve interprets node values as continuously compounded zero rates.
type YieldCurve struct {
	*Curve
}

// NewYieldCurve builds a zero-rate curve.
func NewYieldCurve(name string, times, rates []float64, interpolator interp.Interpolator) (*YieldCurve, error) {
	c, err := New(name, times, rates, interpolator)
	if err != nil {
		return nil, err
	}
	return &YieldCurve{Curve: c}, nil
}

// ZeroRate returns the interpolated zero rate at t.
func (c *YieldCurve) ZeroRate(t float64) float64 {
	return c.Value(t)
}

// DiscountFactor returns exp(-r(t) t).
func (c *YieldCurve) DiscountFactor(t float64) float64 {
	return math.Exp(-c.Value(t) * t)
}

// ForwardRate returns the simply compounded forward rate over [start, end] with accrual factor accrual.
func (c *YieldCurve) ForwardRate(start, end, accrual float64) float64 {
	return (c.DiscountFactor(start)/c.DiscountFactor(end) - 1) / accrual
}

// WithValues returns a curve with the same nodes and new zero rates.
func (c *YieldCurve) WithValues(rates []float64) (*YieldCurve, error) {
	nc, err := c.withValues(rates)
	if err != nil {
		return nil, err
	}
	return &YieldCurve{Curve: nc}, nil
}

// Bumped shifts a single node rate.
func (c *YieldCurve) Bumped(node int, shift float64) (*YieldCurve, error) {
	nc, err := c.bumped(node, shift)
	if err != nil {
		return nil, err
	}
	return &YieldCurve{Curve: nc}, nil
}

// ParallelShift shifts every node rate by shift.
func (c *YieldCurve) ParallelShift(shift float64) *YieldCurve {
	values := c.Values()
	for i := range values {
		values[i] += shift
	}
	// Same node count and no NaN: cannot fail.
	nc, _ := c.withValues(values)
	return &YieldCurve{Curve: nc}
}

// Flat returns a single-node yield curve at rate.
func Flat(name string, rate float64) *YieldCurve {
	return &YieldCurve{Curve: &Curve{
		name:         name,
		times:        []float64{1},
		values:       []float64{rate},
		interpolator: interp.Linear{},
	}}
}

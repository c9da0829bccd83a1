package curve

import "github.com/meenmo/mocurve/interp"

// PriceIndexCurve interprets node values as price index levels.
type PriceIndexCurve struct {
	*Curve
}

func NewPriceIndexCurve(name string, times, levels []float64, interpolator interp.Interpolator) (*PriceIndexCurve, error) {
	c, err := New(name, times, levels, interpolator)
	if err != nil {
		return nil, err
	}
	return &PriceIndexCurve{Curve: c}, nil
}

// Index returns the estimated index level at t.
func (c *PriceIndexCurve) Index(t float64) float64 {
	return c.Value(t)
}

func (c *PriceIndexCurve) WithValues(levels []float64) (*PriceIndexCurve, error) {
	nc, err := c.withValues(levels)
	if err != nil {
		return nil, err
	}
	return &PriceIndexCurve{Curve: nc}, nil
}

func (c *PriceIndexCurve) Bumped(node int, shift float64) (*PriceIndexCurve, error) {
	nc, err := c.bumped(node, shift)
	if err != nil {
		return nil, err
	}
	return &PriceIndexCurve{Curve: nc}, nil
}

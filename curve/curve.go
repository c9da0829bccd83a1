// Package curve holds immutable interpolated curves: zero-rate yield curves
// and price-index curves.
package curve

import (
	"errors"
	"fmt"
	"math"

	"github.com/meenmo/mocurve/interp"
)

var (
	ErrInvalidNodes      = errors.New("invalid curve nodes")
	ErrNodeIndexOutRange = errors.New("node index out of range")
)

// Nodal is the view of a curve used to project sensitivities onto its nodes.
type Nodal interface {
	Name() string
	Times() []float64
	NodeSensitivity(t float64) []float64
}

// Curve is a named set of (time, value) nodes with an interpolator.
type Curve struct {
	name         string
	times        []float64
	values       []float64
	interpolator interp.Interpolator
}

// New validates and copies the nodes.
func New(name string, times, values []float64, interpolator interp.Interpolator) (*Curve, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("New %q: %w: no nodes", name, ErrInvalidNodes)
	}
	if len(times) != len(values) {
		return nil, fmt.Errorf("New %q: %w: %d times, %d values", name, ErrInvalidNodes, len(times), len(values))
	}
	if interpolator == nil {
		return nil, fmt.Errorf("New %q: %w: nil interpolator", name, ErrInvalidNodes)
	}
	for i := range times {
		if math.IsNaN(times[i]) || math.IsNaN(values[i]) {
			return nil, fmt.Errorf("New %q: %w: NaN at node %d", name, ErrInvalidNodes, i)
		}
		if i > 0 && times[i] <= times[i-1] {
			return nil, fmt.Errorf("New %q: %w: times not strictly increasing at node %d", name, ErrInvalidNodes, i)
		}
	}
	return &Curve{
		name:         name,
		times:        append([]float64(nil), times...),
		values:       append([]float64(nil), values...),
		interpolator: interpolator,
	}, nil
}

func (c *Curve) Name() string { return c.name }

// Times returns a copy of the node times.
func (c *Curve) Times() []float64 { return append([]float64(nil), c.times...) }

// Values returns a copy of the node values.
func (c *Curve) Values() []float64 { return append([]float64(nil), c.values...) }

func (c *Curve) Len() int { return len(c.times) }

func (c *Curve) Interpolator() interp.Interpolator { return c.interpolator }

// Value interpolates the curve at t.
func (c *Curve) Value(t float64) float64 {
	return c.interpolator.Interpolate(c.times, c.values, t)
}

// NodeSensitivity returns d Value(t) / d node_i.
func (c *Curve) NodeSensitivity(t float64) []float64 {
	return c.interpolator.NodeSensitivity(c.times, c.values, t)
}

func (c *Curve) withValues(values []float64) (*Curve, error) {
	return New(c.name, c.times, values, c.interpolator)
}

func (c *Curve) bumped(node int, shift float64) (*Curve, error) {
	if node < 0 || node >= len(c.values) {
		return nil, fmt.Errorf("bumped %q: %w: %d", c.name, ErrNodeIndexOutRange, node)
	}
	values := c.Values()
	values[node] += shift
	return c.withValues(values)
}

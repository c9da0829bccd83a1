// Package interp provides one-dimensional interpolators over curve nodes.
//
// Every interpolator reports, alongside the interpolated value, the
// sensitivity of that value to each node value. Curve sensitivities are
// projected onto the nodes through these weights.
package interp

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrUnknownInterpolator is returned by Named for unregistered names.
var ErrUnknownInterpolator = errors.New("unknown interpolator")

// Interpolator evaluates a curve between its nodes.
//
// xs is strictly increasing and len(xs) == len(ys) >= 1.
type Interpolator interface {
	Interpolate(xs, ys []float64, x float64) float64
	// NodeSensitivity returns d value(x) / d ys[i] for every node.
	NodeSensitivity(xs, ys []float64, x float64) []float64
}

// Linear interpolates linearly between nodes and extrapolates flat.
type Linear struct{}

func (Linear) Interpolate(xs, ys []float64, x float64) float64 {
	lo, w := bracket(xs, x)
	if w == 0 {
		return ys[lo]
	}
	return (1-w)*ys[lo] + w*ys[lo+1]
}

func (Linear) NodeSensitivity(xs, ys []float64, x float64) []float64 {
	out := make([]float64, len(xs))
	lo, w := bracket(xs, x)
	out[lo] = 1 - w
	if w != 0 {
		out[lo+1] = w
	}
	return out
}

// LogLinear interpolates linearly in log(y) and extrapolates flat. Node values must be positive.
type LogLinear struct{}

func (LogLinear) Interpolate(xs, ys []float64, x float64) float64 {
	lo, w := bracket(xs, x)
	if w == 0 {
		return ys[lo]
	}
	return math.Exp((1-w)*math.Log(ys[lo]) + w*math.Log(ys[lo+1]))
}

func (l LogLinear) NodeSensitivity(xs, ys []float64, x float64) []float64 {
	out := make([]float64, len(xs))
	lo, w := bracket(xs, x)
	if w == 0 {
		out[lo] = 1
		return out
	}
	v := l.Interpolate(xs, ys, x)
	out[lo] = (1 - w) * v / ys[lo]
	out[lo+1] = w * v / ys[lo+1]
	return out
}

// bracket returns the left node index and the weight of the right node.
// A zero weight means the value is ys[lo] alone (exact node or flat extrapolation).
func bracket(xs []float64, x float64) (int, float64) {
	n := len(xs)
	if n == 1 || x <= xs[0] {
		return 0, 0
	}
	if x >= xs[n-1] {
		return n - 1, 0
	}
	// First index with xs[i] > x.
	i := sort.Search(n, func(i int) bool { return xs[i] > x })
	lo := i - 1
	return lo, (x - xs[lo]) / (xs[lo+1] - xs[lo])
}

// Named returns the interpolator registered under name.
func Named(name string) (Interpolator, error) {
	switch name {
	case "linear", "":
		return Linear{}, nil
	case "log-linear", "loglinear":
		return LogLinear{}, nil
	default:
		return nil, fmt.Errorf("Named: %w: %q", ErrUnknownInterpolator, name)
	}
}

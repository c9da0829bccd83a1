package credit

import (
	"fmt"
	"math"
)

// HazardCurve is a piecewise-constant forward hazard curve. It stores the
// integrated hazard h(t) t at its nodes and interpolates it linearly, with the
// last forward hazard extrapolated past the final node.
type HazardCurve struct {
	times []float64
	rt    []float64
}

// NewHazardCurve builds a curve from node times and zero hazard rates.
func NewHazardCurve(times, rates []float64) (*HazardCurve, error) {
	if len(times) == 0 || len(times) != len(rates) {
		return nil, fmt.Errorf("NewHazardCurve: %w: %d times, %d rates", ErrLengthMismatch, len(times), len(rates))
	}
	rt := make([]float64, len(times))
	for i, t := range times {
		if t <= 0 || (i > 0 && t <= times[i-1]) {
			return nil, fmt.Errorf("NewHazardCurve: %w: node %d at %g", ErrUnsortedPillars, i, t)
		}
		if math.IsNaN(rates[i]) || math.IsInf(rates[i], 0) {
			return nil, fmt.Errorf("NewHazardCurve: %w: rate %d is %g", ErrInvalidSpread, i, rates[i])
		}
		rt[i] = rates[i] * t
	}
	return &HazardCurve{times: append([]float64(nil), times...), rt: rt}, nil
}

// FlatHazardCurve has the same hazard rate at every time.
func FlatHazardCurve(rate float64) *HazardCurve {
	return &HazardCurve{times: []float64{1}, rt: []float64{rate}}
}

func (h *HazardCurve) Times() []float64 { return append([]float64(nil), h.times...) }

func (h *HazardCurve) Len() int { return len(h.times) }

// Rates returns the zero hazard rate at each node.
func (h *HazardCurve) Rates() []float64 {
	out := make([]float64, len(h.times))
	for i, t := range h.times {
		out[i] = h.rt[i] / t
	}
	return out
}

// RT is the integrated hazard up to t.
func (h *HazardCurve) RT(t float64) float64 {
	n := len(h.times)
	if t <= h.times[0] {
		return h.rt[0] * t / h.times[0]
	}
	if t >= h.times[n-1] {
		if n == 1 {
			return h.rt[0] * t / h.times[0]
		}
		slope := (h.rt[n-1] - h.rt[n-2]) / (h.times[n-1] - h.times[n-2])
		return h.rt[n-1] + slope*(t-h.times[n-1])
	}
	i := 1
	for h.times[i] < t {
		i++
	}
	w := (t - h.times[i-1]) / (h.times[i] - h.times[i-1])
	return (1-w)*h.rt[i-1] + w*h.rt[i]
}

// ZeroHazard is RT(t) / t; at t = 0 it is the first forward hazard.
func (h *HazardCurve) ZeroHazard(t float64) float64 {
	if t <= 0 {
		return h.rt[0] / h.times[0]
	}
	return h.RT(t) / t
}

// Survival is the probability of no default before t.
func (h *HazardCurve) Survival(t float64) float64 {
	return math.Exp(-h.RT(t))
}

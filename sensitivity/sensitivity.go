// Package sensitivity holds point sensitivities of present values to curves
// and their projection onto curve nodes.
package sensitivity

import (
	"fmt"
	"math"
	"sort"

	"github.com/meenmo/mocurve/curve"
	"github.com/meenmo/mocurve/money"
)

// timeTolerance is the distance below which two point times are merged.
const timeTolerance = 1e-12

// Point is the sensitivity Amount of a present value to the curve value at Time.
type Point struct {
	Time   float64
	Amount float64
}

// CurveSensitivity maps curve names to point sensitivities. Values are immutable.
type CurveSensitivity struct {
	points map[string][]Point
}

// Of returns the sensitivity to a single curve.
func Of(name string, points ...Point) CurveSensitivity {
	return CurveSensitivity{points: map[string][]Point{name: append([]Point(nil), points...)}}
}

// Plus concatenates the points of both sensitivities; nothing is overwritten.
func (s CurveSensitivity) Plus(other CurveSensitivity) CurveSensitivity {
	out := CurveSensitivity{points: make(map[string][]Point, len(s.points)+len(other.points))}
	for name, pts := range s.points {
		out.points[name] = append([]Point(nil), pts...)
	}
	for name, pts := range other.points {
		out.points[name] = append(out.points[name], pts...)
	}
	return out
}

// Multiplied scales every amount.
func (s CurveSensitivity) Multiplied(factor float64) CurveSensitivity {
	out := CurveSensitivity{points: make(map[string][]Point, len(s.points))}
	for name, pts := range s.points {
		scaled := make([]Point, len(pts))
		for i, p := range pts {
			scaled[i] = Point{Time: p.Time, Amount: p.Amount * factor}
		}
		out.points[name] = scaled
	}
	return out
}

// Cleaned sorts each curve's points by time and merges points at identical times.
func (s CurveSensitivity) Cleaned() CurveSensitivity {
	out := CurveSensitivity{points: make(map[string][]Point, len(s.points))}
	for name, pts := range s.points {
		sorted := append([]Point(nil), pts...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
		merged := make([]Point, 0, len(sorted))
		for _, p := range sorted {
			if n := len(merged); n > 0 && math.Abs(merged[n-1].Time-p.Time) < timeTolerance {
				merged[n-1].Amount += p.Amount
				continue
			}
			merged = append(merged, p)
		}
		out.points[name] = merged
	}
	return out
}

// Names returns the curve names, sorted.
func (s CurveSensitivity) Names() []string {
	out := make([]string, 0, len(s.points))
	for name := range s.points {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Points returns a copy of the points for name.
func (s CurveSensitivity) Points(name string) []Point {
	return append([]Point(nil), s.points[name]...)
}

// Total returns the sum of all amounts for name.
func (s CurveSensitivity) Total(name string) float64 {
	total := 0.0
	for _, p := range s.points[name] {
		total += p.Amount
	}
	return total
}

// Equal compares two cleaned sensitivities with an absolute tolerance on amounts.
func Equal(a, b CurveSensitivity, tol float64) bool {
	ca, cb := a.Cleaned(), b.Cleaned()
	names := map[string]struct{}{}
	for n := range ca.points {
		names[n] = struct{}{}
	}
	for n := range cb.points {
		names[n] = struct{}{}
	}
	for n := range names {
		pa, pb := ca.points[n], cb.points[n]
		if len(pa) != len(pb) {
			return false
		}
		for i := range pa {
			if math.Abs(pa[i].Time-pb[i].Time) > timeTolerance || math.Abs(pa[i].Amount-pb[i].Amount) > tol {
				return false
			}
		}
	}
	return true
}

// MultipleCurrencyCurveSensitivity groups curve sensitivities by the currency of the present value.
type MultipleCurrencyCurveSensitivity struct {
	byCurrency map[money.Currency]CurveSensitivity
}

// OfCurrency returns a sensitivity in a single currency.
func OfCurrency(ccy money.Currency, s CurveSensitivity) MultipleCurrencyCurveSensitivity {
	return MultipleCurrencyCurveSensitivity{byCurrency: map[money.Currency]CurveSensitivity{ccy: s}}
}

func (m MultipleCurrencyCurveSensitivity) Plus(other MultipleCurrencyCurveSensitivity) MultipleCurrencyCurveSensitivity {
	out := MultipleCurrencyCurveSensitivity{byCurrency: make(map[money.Currency]CurveSensitivity, len(m.byCurrency)+len(other.byCurrency))}
	for ccy, s := range m.byCurrency {
		out.byCurrency[ccy] = s
	}
	for ccy, s := range other.byCurrency {
		out.byCurrency[ccy] = out.byCurrency[ccy].Plus(s)
	}
	return out
}

func (m MultipleCurrencyCurveSensitivity) Multiplied(factor float64) MultipleCurrencyCurveSensitivity {
	out := MultipleCurrencyCurveSensitivity{byCurrency: make(map[money.Currency]CurveSensitivity, len(m.byCurrency))}
	for ccy, s := range m.byCurrency {
		out.byCurrency[ccy] = s.Multiplied(factor)
	}
	return out
}

func (m MultipleCurrencyCurveSensitivity) Cleaned() MultipleCurrencyCurveSensitivity {
	out := MultipleCurrencyCurveSensitivity{byCurrency: make(map[money.Currency]CurveSensitivity, len(m.byCurrency))}
	for ccy, s := range m.byCurrency {
		out.byCurrency[ccy] = s.Cleaned()
	}
	return out
}

// Sensitivity returns the sensitivity in ccy, empty when absent.
func (m MultipleCurrencyCurveSensitivity) Sensitivity(ccy money.Currency) CurveSensitivity {
	return m.byCurrency[ccy]
}

func (m MultipleCurrencyCurveSensitivity) Currencies() []money.Currency {
	out := make([]money.Currency, 0, len(m.byCurrency))
	for ccy := range m.byCurrency {
		out = append(out, ccy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CurveSource resolves curve names to curves, e.g. a market.Bundle.
type CurveSource interface {
	CurveByName(name string) (curve.Nodal, error)
}

// Parameter projects the point sensitivities of every curve in s onto the curve nodes.
func Parameter(s CurveSensitivity, src CurveSource) (map[string][]float64, error) {
	out := make(map[string][]float64, len(s.points))
	for _, name := range s.Names() {
		c, err := src.CurveByName(name)
		if err != nil {
			return nil, fmt.Errorf("Parameter: %w", err)
		}
		out[name] = project(s.points[name], c)
	}
	return out, nil
}

// ParameterVector projects s onto the nodes of names, concatenated in order.
// Curves in s that are not listed are ignored; listed curves absent from s contribute zeros.
func ParameterVector(s CurveSensitivity, src CurveSource, names []string) ([]float64, error) {
	var out []float64
	for _, name := range names {
		c, err := src.CurveByName(name)
		if err != nil {
			return nil, fmt.Errorf("ParameterVector: %w", err)
		}
		out = append(out, project(s.points[name], c)...)
	}
	return out, nil
}

func project(points []Point, c curve.Nodal) []float64 {
	out := make([]float64, len(c.Times()))
	for _, p := range points {
		for i, w := range c.NodeSensitivity(p.Time) {
			out[i] += w * p.Amount
		}
	}
	return out
}

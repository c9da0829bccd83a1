package credit

import (
	"fmt"
	"math"

	"github.com/meenmo/mocurve/config"
	"github.com/meenmo/mocurve/curve"
	"github.com/meenmo/mocurve/rootfind"
)

// maxHazard caps the bracket search; a zero hazard rate of 1000% is far past any traded name.
const maxHazard = 10.0

// CurveBuilder bootstraps a hazard curve one pillar at a time: the hazard rate
// at pillar i is solved so that CDS i reprices to its quote, with the earlier
// pillars fixed.
type CurveBuilder struct {
	pricer    Pricer
	tolerance float64
	maxIter   int
}

func NewCurveBuilder(c config.CreditConfig) *CurveBuilder {
	return &CurveBuilder{tolerance: c.Tolerance, maxIter: c.MaxIterations}
}

// Calibrate builds the curve from quotes in any convention.
func (b *CurveBuilder) Calibrate(pillars []*CDS, quotes []Quote, yc *curve.YieldCurve) (*HazardCurve, error) {
	if len(pillars) != len(quotes) {
		return nil, fmt.Errorf("Calibrate: %w: %d pillars, %d quotes", ErrLengthMismatch, len(pillars), len(quotes))
	}
	coupons := make([]float64, len(quotes))
	pufs := make([]float64, len(quotes))
	conv := PUFConverter{builder: b}
	for i, q := range quotes {
		switch q := q.(type) {
		case ParSpread:
			coupons[i] = q.Spread
		case PointsUpFront:
			coupons[i] = q.Premium
			pufs[i] = q.Value
		case QuotedSpread:
			puf, err := conv.QuotedSpreadToPUF(pillars[i], q.Premium, yc, q.Spread)
			if err != nil {
				return nil, fmt.Errorf("Calibrate: pillar %d: %w", i, err)
			}
			coupons[i] = q.Premium
			pufs[i] = puf
		default:
			return nil, fmt.Errorf("Calibrate: pillar %d: %w: %T", i, ErrUnknownQuote, q)
		}
	}
	return b.CalibratePUF(pillars, coupons, yc, pufs)
}

// CalibrateParSpreads builds the curve from par spreads.
func (b *CurveBuilder) CalibrateParSpreads(pillars []*CDS, spreads []float64, yc *curve.YieldCurve) (*HazardCurve, error) {
	for i, s := range spreads {
		if s <= 0 || math.IsNaN(s) {
			return nil, fmt.Errorf("CalibrateParSpreads: %w: spread %d is %g", ErrInvalidSpread, i, s)
		}
	}
	return b.CalibratePUF(pillars, spreads, yc, make([]float64, len(spreads)))
}

// CalibrateFlat finds the single hazard rate at which cds has the given par spread.
func (b *CurveBuilder) CalibrateFlat(cds *CDS, parSpread float64, yc *curve.YieldCurve) (*HazardCurve, error) {
	return b.CalibrateParSpreads([]*CDS{cds}, []float64{parSpread}, yc)
}

// CalibratePUF builds the curve from clean upfront prices on the given coupons.
func (b *CurveBuilder) CalibratePUF(pillars []*CDS, coupons []float64, yc *curve.YieldCurve, pufs []float64) (*HazardCurve, error) {
	n := len(pillars)
	if n == 0 {
		return nil, fmt.Errorf("CalibratePUF: %w: no pillars", ErrLengthMismatch)
	}
	if len(coupons) != n || len(pufs) != n {
		return nil, fmt.Errorf("CalibratePUF: %w: %d pillars, %d coupons, %d prices", ErrLengthMismatch, n, len(coupons), len(pufs))
	}
	if yc == nil {
		return nil, fmt.Errorf("CalibratePUF: %w: nil yield curve", ErrInvalidCDS)
	}
	times := make([]float64, n)
	for i, cds := range pillars {
		if err := cds.validate(); err != nil {
			return nil, fmt.Errorf("CalibratePUF: pillar %d: %w", i, err)
		}
		times[i] = cds.Maturity()
		if i > 0 && times[i] <= times[i-1] {
			return nil, fmt.Errorf("CalibratePUF: %w: pillar %d at %g", ErrUnsortedPillars, i, times[i])
		}
	}

	rates := make([]float64, 0, n)
	for i, cds := range pillars {
		trial := func(h float64) (*HazardCurve, error) {
			return NewHazardCurve(times[:i+1], append(rates[:i:i], h))
		}
		f := func(h float64) (float64, error) {
			hc, err := trial(h)
			if err != nil {
				return 0, err
			}
			pv, err := b.pricer.PV(cds, yc, hc, coupons[i], Clean)
			if err != nil {
				return 0, err
			}
			return pv - pufs[i], nil
		}

		// The forward hazard into this pillar must not be negative.
		floor := 0.0
		if i > 0 {
			floor = rates[i-1] * times[i-1] / times[i]
		}
		guess := math.Max(coupons[i], 1e-4) / cds.LGD()
		lower := math.Max(floor, 0.5*guess)
		upper := math.Max(lower, guess) * 1.5
		lower, upper, err := rootfind.ExpandBracket(f, lower, upper, floor, maxHazard, b.maxIter)
		if err != nil {
			return nil, fmt.Errorf("CalibratePUF: pillar %d: %w", i, err)
		}
		h, err := rootfind.Brent(f, lower, upper, b.tolerance, b.maxIter)
		if err != nil {
			return nil, fmt.Errorf("CalibratePUF: pillar %d: %w", i, err)
		}
		rates = append(rates, h)
	}
	return NewHazardCurve(times, rates)
}

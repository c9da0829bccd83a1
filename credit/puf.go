package credit

import (
	"fmt"

	"github.com/meenmo/mocurve/curve"
)

// PUFConverter converts between points upfront and quoted spreads. The quoted
// spread of a CDS is the par spread of the flat hazard curve that prices it.
type PUFConverter struct {
	builder *CurveBuilder
	pricer  Pricer
}

func NewPUFConverter(b *CurveBuilder) PUFConverter {
	return PUFConverter{builder: b}
}

// QuotedSpreadToPUF prices cds with coupon off the flat curve implied by spread.
func (c PUFConverter) QuotedSpreadToPUF(cds *CDS, coupon float64, yc *curve.YieldCurve, spread float64) (float64, error) {
	hc, err := c.builder.CalibrateFlat(cds, spread, yc)
	if err != nil {
		return 0, fmt.Errorf("QuotedSpreadToPUF: %w", err)
	}
	return c.pricer.PV(cds, yc, hc, coupon, Clean)
}

// PUFToQuotedSpread finds the flat curve that gives puf and returns its par spread.
func (c PUFConverter) PUFToQuotedSpread(cds *CDS, coupon float64, yc *curve.YieldCurve, puf float64) (float64, error) {
	hc, err := c.builder.CalibratePUF([]*CDS{cds}, []float64{coupon}, yc, []float64{puf})
	if err != nil {
		return 0, fmt.Errorf("PUFToQuotedSpread: %w", err)
	}
	return c.pricer.ParSpread(cds, yc, hc)
}

// QuotedSpreadsToPUF converts each quoted spread with its own CDS and coupon.
func (c PUFConverter) QuotedSpreadsToPUF(cdss []*CDS, coupons []float64, yc *curve.YieldCurve, spreads []float64) ([]float64, error) {
	if len(cdss) != len(coupons) || len(cdss) != len(spreads) {
		return nil, fmt.Errorf("QuotedSpreadsToPUF: %w", ErrLengthMismatch)
	}
	out := make([]float64, len(cdss))
	for i := range cdss {
		v, err := c.QuotedSpreadToPUF(cdss[i], coupons[i], yc, spreads[i])
		if err != nil {
			return nil, fmt.Errorf("QuotedSpreadsToPUF: %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// PUFsToQuotedSpreads converts each upfront with its own CDS and coupon.
func (c PUFConverter) PUFsToQuotedSpreads(cdss []*CDS, coupons []float64, yc *curve.YieldCurve, pufs []float64) ([]float64, error) {
	if len(cdss) != len(coupons) || len(cdss) != len(pufs) {
		return nil, fmt.Errorf("PUFsToQuotedSpreads: %w", ErrLengthMismatch)
	}
	out := make([]float64, len(cdss))
	for i := range cdss {
		v, err := c.PUFToQuotedSpread(cdss[i], coupons[i], yc, pufs[i])
		if err != nil {
			return nil, fmt.Errorf("PUFsToQuotedSpreads: %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// ToPUF expresses any quote as points upfront. A par spread is its own coupon at zero upfront.
func (c PUFConverter) ToPUF(cds *CDS, q Quote, yc *curve.YieldCurve) (PointsUpFront, error) {
	switch q := q.(type) {
	case PointsUpFront:
		return q, nil
	case ParSpread:
		return PointsUpFront{Premium: q.Spread}, nil
	case QuotedSpread:
		puf, err := c.QuotedSpreadToPUF(cds, q.Premium, yc, q.Spread)
		if err != nil {
			return PointsUpFront{}, err
		}
		return PointsUpFront{Premium: q.Premium, Value: puf}, nil
	}
	return PointsUpFront{}, fmt.Errorf("ToPUF: %w: %T", ErrUnknownQuote, q)
}

// ToQuotedSpread expresses any quote as a quoted spread on its coupon.
func (c PUFConverter) ToQuotedSpread(cds *CDS, q Quote, yc *curve.YieldCurve) (QuotedSpread, error) {
	switch q := q.(type) {
	case QuotedSpread:
		return q, nil
	case ParSpread:
		return QuotedSpread{Premium: q.Spread, Spread: q.Spread}, nil
	case PointsUpFront:
		s, err := c.PUFToQuotedSpread(cds, q.Premium, yc, q.Value)
		if err != nil {
			return QuotedSpread{}, err
		}
		return QuotedSpread{Premium: q.Premium, Spread: s}, nil
	}
	return QuotedSpread{}, fmt.Errorf("ToQuotedSpread: %w: %T", ErrUnknownQuote, q)
}

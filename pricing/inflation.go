package pricing

import (
	"fmt"
	"math"

	"github.com/meenmo/mocurve/instrument"
	"github.com/meenmo/mocurve/market"
	"github.com/meenmo/mocurve/money"
	"github.com/meenmo/mocurve/sensitivity"
)

type inflationRecord struct {
	discountCurve   string
	priceIndexCurve string
	df              float64
	estimatedIndex  float64
	pv              float64
}

// inflationForward values (I / I_start - k) DF N, k = 0 when the notional is paid, 1 otherwise.
func inflationForward(op string, ccy money.Currency, index instrument.PriceIndex, paymentTime, notional, indexStart float64, payNotional bool,
	m *market.Bundle, estimate func(lookup func(float64) float64) float64) (inflationRecord, error) {
	if !(indexStart > 0) || math.IsInf(indexStart, 0) {
		return inflationRecord{}, fmt.Errorf("%s: %w: index start value %v", op, instrument.ErrInvalidInstrument, indexStart)
	}
	if err := checkMarket(op, m); err != nil {
		return inflationRecord{}, err
	}
	dc, err := m.DiscountCurve(ccy)
	if err != nil {
		return inflationRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	pc, err := m.PriceIndexCurve(index.Name)
	if err != nil {
		return inflationRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	r := inflationRecord{
		discountCurve:   dc.Name(),
		priceIndexCurve: pc.Name(),
		df:              dc.DiscountFactor(paymentTime),
		estimatedIndex:  estimate(pc.Index),
	}
	r.pv = (r.estimatedIndex/indexStart - notionalOffset(payNotional)) * r.df * notional
	return r, nil
}

func notionalOffset(payNotional bool) float64 {
	if payNotional {
		return 0
	}
	return 1
}

// inflationBackward returns the discount point and the adjoint of the estimated index.
func inflationBackward(r inflationRecord, paymentTime, notional, indexStart float64, payNotional bool) (sensitivity.Point, float64) {
	dfBar := (r.estimatedIndex/indexStart - notionalOffset(payNotional)) * notional
	ratioBar := r.df * notional
	indexBar := ratioBar / indexStart
	return discountingPoint(paymentTime, r.df, dfBar), indexBar
}

// InflationZeroCouponMonthlyDiscounting references a single monthly index fixing.
type InflationZeroCouponMonthlyDiscounting struct{}

func (InflationZeroCouponMonthlyDiscounting) forward(c *instrument.InflationZeroCouponMonthly, m *market.Bundle) (inflationRecord, error) {
	return inflationForward("InflationZeroCouponMonthlyDiscounting", c.Ccy, c.PriceIndex, c.PaymentTime, c.Notional, c.IndexStartValue, c.PayNotional, m,
		func(index func(float64) float64) float64 { return index(c.ReferenceEndTime) })
}

func (p InflationZeroCouponMonthlyDiscounting) PresentValue(c *instrument.InflationZeroCouponMonthly, m *market.Bundle) (money.MultipleCurrencyAmount, error) {
	r, err := p.forward(c, m)
	if err != nil {
		return money.MultipleCurrencyAmount{}, err
	}
	return money.Of(c.Ccy, r.pv), nil
}

func (p InflationZeroCouponMonthlyDiscounting) CurveSensitivity(c *instrument.InflationZeroCouponMonthly, m *market.Bundle) (sensitivity.MultipleCurrencyCurveSensitivity, error) {
	r, err := p.forward(c, m)
	if err != nil {
		return noSensitivity{}, err
	}
	dfPoint, indexBar := inflationBackward(r, c.PaymentTime, c.Notional, c.IndexStartValue, c.PayNotional)
	s := sensitivity.Of(r.discountCurve, dfPoint).
		Plus(sensitivity.Of(r.priceIndexCurve, sensitivity.Point{Time: c.ReferenceEndTime, Amount: indexBar}))
	return sensitivity.OfCurrency(c.Ccy, s), nil
}

// InflationZeroCouponInterpolationDiscounting references an index interpolated between two fixings.
type InflationZeroCouponInterpolationDiscounting struct{}

func (InflationZeroCouponInterpolationDiscounting) forward(c *instrument.InflationZeroCouponInterpolation, m *market.Bundle) (inflationRecord, error) {
	return inflationForward("InflationZeroCouponInterpolationDiscounting", c.Ccy, c.PriceIndex, c.PaymentTime, c.Notional, c.IndexStartValue, c.PayNotional, m,
		func(index func(float64) float64) float64 {
			return c.Weight*index(c.ReferenceEndTimes[0]) + (1-c.Weight)*index(c.ReferenceEndTimes[1])
		})
}

func (p InflationZeroCouponInterpolationDiscounting) PresentValue(c *instrument.InflationZeroCouponInterpolation, m *market.Bundle) (money.MultipleCurrencyAmount, error) {
	r, err := p.forward(c, m)
	if err != nil {
		return money.MultipleCurrencyAmount{}, err
	}
	return money.Of(c.Ccy, r.pv), nil
}

func (p InflationZeroCouponInterpolationDiscounting) CurveSensitivity(c *instrument.InflationZeroCouponInterpolation, m *market.Bundle) (sensitivity.MultipleCurrencyCurveSensitivity, error) {
	r, err := p.forward(c, m)
	if err != nil {
		return noSensitivity{}, err
	}
	dfPoint, indexBar := inflationBackward(r, c.PaymentTime, c.Notional, c.IndexStartValue, c.PayNotional)
	s := sensitivity.Of(r.discountCurve, dfPoint).
		Plus(sensitivity.Of(r.priceIndexCurve,
			sensitivity.Point{Time: c.ReferenceEndTimes[0], Amount: c.Weight * indexBar},
			sensitivity.Point{Time: c.ReferenceEndTimes[1], Amount: (1 - c.Weight) * indexBar},
		))
	return sensitivity.OfCurrency(c.Ccy, s), nil
}

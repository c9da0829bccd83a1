package pricing

import (
	"fmt"

	"github.com/meenmo/mocurve/instrument"
	"github.com/meenmo/mocurve/market"
	"github.com/meenmo/mocurve/money"
	"github.com/meenmo/mocurve/sensitivity"
)

type noSensitivity = sensitivity.MultipleCurrencyCurveSensitivity

// ---------------------------------------------------------------------------
// Deposit
// ---------------------------------------------------------------------------

// DepositDiscounting values a deposit as N ((1 + r a) DF(end) - DF(start)).
type DepositDiscounting struct{}

type depositRecord struct {
	curve   string
	dfStart float64
	dfEnd   float64
	pv      float64
}

func (DepositDiscounting) forward(d *instrument.Deposit, m *market.Bundle) (depositRecord, error) {
	if err := checkMarket("DepositDiscounting", m); err != nil {
		return depositRecord{}, err
	}
	dc, err := m.DiscountCurve(d.Ccy)
	if err != nil {
		return depositRecord{}, fmt.Errorf("DepositDiscounting: %w", err)
	}
	r := depositRecord{
		curve:   dc.Name(),
		dfStart: dc.DiscountFactor(d.StartTime),
		dfEnd:   dc.DiscountFactor(d.EndTime),
	}
	r.pv = d.Notional * ((1+d.Rate*d.AccrualFactor)*r.dfEnd - r.dfStart)
	return r, nil
}

func (p DepositDiscounting) PresentValue(d *instrument.Deposit, m *market.Bundle) (money.MultipleCurrencyAmount, error) {
	r, err := p.forward(d, m)
	if err != nil {
		return money.MultipleCurrencyAmount{}, err
	}
	return money.Of(d.Ccy, r.pv), nil
}

func (p DepositDiscounting) CurveSensitivity(d *instrument.Deposit, m *market.Bundle) (sensitivity.MultipleCurrencyCurveSensitivity, error) {
	r, err := p.forward(d, m)
	if err != nil {
		return noSensitivity{}, err
	}
	dfEndBar := d.Notional * (1 + d.Rate*d.AccrualFactor)
	dfStartBar := -d.Notional
	return single(d.Ccy, r.curve,
		discountingPoint(d.StartTime, r.dfStart, dfStartBar),
		discountingPoint(d.EndTime, r.dfEnd, dfEndBar),
	), nil
}

// ParRate returns the deposit rate that makes the present value zero.
func (p DepositDiscounting) ParRate(d *instrument.Deposit, m *market.Bundle) (float64, error) {
	r, err := p.forward(d, m)
	if err != nil {
		return 0, err
	}
	return (r.dfStart/r.dfEnd - 1) / d.AccrualFactor, nil
}

// ---------------------------------------------------------------------------
// Fixed payments and coupons
// ---------------------------------------------------------------------------

// PaymentFixedDiscounting values A DF(t).
type PaymentFixedDiscounting struct{}

func (PaymentFixedDiscounting) PresentValue(p *instrument.PaymentFixed, m *market.Bundle) (money.MultipleCurrencyAmount, error) {
	if err := checkMarket("PaymentFixedDiscounting", m); err != nil {
		return money.MultipleCurrencyAmount{}, err
	}
	df, err := m.DiscountFactor(p.Ccy, p.PaymentTime)
	if err != nil {
		return money.MultipleCurrencyAmount{}, fmt.Errorf("PaymentFixedDiscounting: %w", err)
	}
	return money.Of(p.Ccy, p.Amount*df), nil
}

func (PaymentFixedDiscounting) CurveSensitivity(p *instrument.PaymentFixed, m *market.Bundle) (sensitivity.MultipleCurrencyCurveSensitivity, error) {
	if err := checkMarket("PaymentFixedDiscounting", m); err != nil {
		return noSensitivity{}, err
	}
	dc, err := m.DiscountCurve(p.Ccy)
	if err != nil {
		return noSensitivity{}, fmt.Errorf("PaymentFixedDiscounting: %w", err)
	}
	df := dc.DiscountFactor(p.PaymentTime)
	return single(p.Ccy, dc.Name(), discountingPoint(p.PaymentTime, df, p.Amount)), nil
}

// CouponFixedDiscounting values N a r DF(t).
type CouponFixedDiscounting struct{}

func (CouponFixedDiscounting) amount(c *instrument.CouponFixed) float64 {
	return c.Notional * c.AccrualFactor * c.Rate
}

func (p CouponFixedDiscounting) PresentValue(c *instrument.CouponFixed, m *market.Bundle) (money.MultipleCurrencyAmount, error) {
	if err := checkMarket("CouponFixedDiscounting", m); err != nil {
		return money.MultipleCurrencyAmount{}, err
	}
	df, err := m.DiscountFactor(c.Ccy, c.PaymentTime)
	if err != nil {
		return money.MultipleCurrencyAmount{}, fmt.Errorf("CouponFixedDiscounting: %w", err)
	}
	return money.Of(c.Ccy, p.amount(c)*df), nil
}

func (p CouponFixedDiscounting) CurveSensitivity(c *instrument.CouponFixed, m *market.Bundle) (sensitivity.MultipleCurrencyCurveSensitivity, error) {
	if err := checkMarket("CouponFixedDiscounting", m); err != nil {
		return noSensitivity{}, err
	}
	dc, err := m.DiscountCurve(c.Ccy)
	if err != nil {
		return noSensitivity{}, fmt.Errorf("CouponFixedDiscounting: %w", err)
	}
	df := dc.DiscountFactor(c.PaymentTime)
	return single(c.Ccy, dc.Name(), discountingPoint(c.PaymentTime, df, p.amount(c))), nil
}

// ---------------------------------------------------------------------------
// Ibor coupon
// ---------------------------------------------------------------------------

// CouponIborDiscounting forwards the index off its own curve and discounts on the currency curve.
type CouponIborDiscounting struct{}

type iborRecord struct {
	discountCurve string
	forwardCurve  string
	df            float64
	dfStart       float64
	dfEnd         float64
	forward       float64
	pv            float64
}

func (CouponIborDiscounting) forward(c *instrument.CouponIbor, m *market.Bundle) (iborRecord, error) {
	if err := checkMarket("CouponIborDiscounting", m); err != nil {
		return iborRecord{}, err
	}
	dc, err := m.DiscountCurve(c.Ccy)
	if err != nil {
		return iborRecord{}, fmt.Errorf("CouponIborDiscounting: %w", err)
	}
	fc, err := m.ForwardCurve(c.Index.Name)
	if err != nil {
		return iborRecord{}, fmt.Errorf("CouponIborDiscounting: %w", err)
	}
	r := iborRecord{
		discountCurve: dc.Name(),
		forwardCurve:  fc.Name(),
		df:            dc.DiscountFactor(c.PaymentTime),
		dfStart:       fc.DiscountFactor(c.FixingPeriodStartTime),
		dfEnd:         fc.DiscountFactor(c.FixingPeriodEndTime),
	}
	r.forward = (r.dfStart/r.dfEnd - 1) / c.FixingAccrualFactor
	r.pv = c.Notional * c.AccrualFactor * (r.forward + c.Spread) * r.df
	return r, nil
}

func (p CouponIborDiscounting) PresentValue(c *instrument.CouponIbor, m *market.Bundle) (money.MultipleCurrencyAmount, error) {
	r, err := p.forward(c, m)
	if err != nil {
		return money.MultipleCurrencyAmount{}, err
	}
	return money.Of(c.Ccy, r.pv), nil
}

func (p CouponIborDiscounting) CurveSensitivity(c *instrument.CouponIbor, m *market.Bundle) (sensitivity.MultipleCurrencyCurveSensitivity, error) {
	r, err := p.forward(c, m)
	if err != nil {
		return noSensitivity{}, err
	}
	dfBar := c.Notional * c.AccrualFactor * (r.forward + c.Spread)
	forwardBar := c.Notional * c.AccrualFactor * r.df
	dfStartBar := forwardBar / (c.FixingAccrualFactor * r.dfEnd)
	dfEndBar := -forwardBar * r.dfStart / (c.FixingAccrualFactor * r.dfEnd * r.dfEnd)
	s := sensitivity.Of(r.discountCurve, discountingPoint(c.PaymentTime, r.df, dfBar)).
		Plus(sensitivity.Of(r.forwardCurve,
			discountingPoint(c.FixingPeriodStartTime, r.dfStart, dfStartBar),
			discountingPoint(c.FixingPeriodEndTime, r.dfEnd, dfEndBar),
		))
	return sensitivity.OfCurrency(c.Ccy, s), nil
}

// ---------------------------------------------------------------------------
// OIS coupon
// ---------------------------------------------------------------------------

// CouponOISDiscounting values (N_accrued DFf(start) / DFf(end) - N) DF(pay).
type CouponOISDiscounting struct{}

type oisRecord struct {
	discountCurve string
	forwardCurve  string
	df            float64
	dfStart       float64
	dfEnd         float64
	ratio         float64
	pv            float64
}

func (CouponOISDiscounting) forward(c *instrument.CouponOIS, m *market.Bundle) (oisRecord, error) {
	if err := checkMarket("CouponOISDiscounting", m); err != nil {
		return oisRecord{}, err
	}
	dc, err := m.DiscountCurve(c.Ccy)
	if err != nil {
		return oisRecord{}, fmt.Errorf("CouponOISDiscounting: %w", err)
	}
	fc, err := m.ForwardCurve(c.Index.Name)
	if err != nil {
		return oisRecord{}, fmt.Errorf("CouponOISDiscounting: %w", err)
	}
	r := oisRecord{
		discountCurve: dc.Name(),
		forwardCurve:  fc.Name(),
		df:            dc.DiscountFactor(c.PaymentTime),
		dfStart:       fc.DiscountFactor(c.FixingPeriodStartTime),
		dfEnd:         fc.DiscountFactor(c.FixingPeriodEndTime),
	}
	r.ratio = r.dfStart / r.dfEnd
	r.pv = (c.NotionalAccrued*r.ratio - c.Notional) * r.df
	return r, nil
}

func (p CouponOISDiscounting) PresentValue(c *instrument.CouponOIS, m *market.Bundle) (money.MultipleCurrencyAmount, error) {
	r, err := p.forward(c, m)
	if err != nil {
		return money.MultipleCurrencyAmount{}, err
	}
	return money.Of(c.Ccy, r.pv), nil
}

func (p CouponOISDiscounting) CurveSensitivity(c *instrument.CouponOIS, m *market.Bundle) (sensitivity.MultipleCurrencyCurveSensitivity, error) {
	r, err := p.forward(c, m)
	if err != nil {
		return noSensitivity{}, err
	}
	dfBar := c.NotionalAccrued*r.ratio - c.Notional
	ratioBar := c.NotionalAccrued * r.df
	dfStartBar := ratioBar / r.dfEnd
	dfEndBar := -ratioBar * r.dfStart / (r.dfEnd * r.dfEnd)
	s := sensitivity.Of(r.discountCurve, discountingPoint(c.PaymentTime, r.df, dfBar)).
		Plus(sensitivity.Of(r.forwardCurve,
			discountingPoint(c.FixingPeriodStartTime, r.dfStart, dfStartBar),
			discountingPoint(c.FixingPeriodEndTime, r.dfEnd, dfEndBar),
		))
	return sensitivity.OfCurrency(c.Ccy, s), nil
}

// ---------------------------------------------------------------------------
// Interest rate future
// ---------------------------------------------------------------------------

// InterestRateFutureDiscounting values the margined future as
// (1 - F - reference price) N a q, F forwarded off the index curve.
type InterestRateFutureDiscounting struct{}

type futureRecord struct {
	forwardCurve string
	dfStart      float64
	dfEnd        float64
	price        float64
}

func (InterestRateFutureDiscounting) forward(f *instrument.InterestRateFuture, m *market.Bundle) (futureRecord, error) {
	if err := checkMarket("InterestRateFutureDiscounting", m); err != nil {
		return futureRecord{}, err
	}
	fc, err := m.ForwardCurve(f.Index.Name)
	if err != nil {
		return futureRecord{}, fmt.Errorf("InterestRateFutureDiscounting: %w", err)
	}
	r := futureRecord{
		forwardCurve: fc.Name(),
		dfStart:      fc.DiscountFactor(f.FixingPeriodStartTime),
		dfEnd:        fc.DiscountFactor(f.FixingPeriodEndTime),
	}
	r.price = 1 - (r.dfStart/r.dfEnd-1)/f.FixingAccrualFactor
	return r, nil
}

// Price returns the futures price 1 - F.
func (p InterestRateFutureDiscounting) Price(f *instrument.InterestRateFuture, m *market.Bundle) (float64, error) {
	r, err := p.forward(f, m)
	if err != nil {
		return 0, err
	}
	return r.price, nil
}

func (p InterestRateFutureDiscounting) PresentValue(f *instrument.InterestRateFuture, m *market.Bundle) (money.MultipleCurrencyAmount, error) {
	r, err := p.forward(f, m)
	if err != nil {
		return money.MultipleCurrencyAmount{}, err
	}
	return money.Of(f.Ccy, (r.price-f.ReferencePrice)*f.Notional*f.PaymentAccrualFactor*f.Quantity), nil
}

func (p InterestRateFutureDiscounting) CurveSensitivity(f *instrument.InterestRateFuture, m *market.Bundle) (sensitivity.MultipleCurrencyCurveSensitivity, error) {
	r, err := p.forward(f, m)
	if err != nil {
		return noSensitivity{}, err
	}
	priceBar := f.Notional * f.PaymentAccrualFactor * f.Quantity
	forwardBar := -priceBar
	dfStartBar := forwardBar / (f.FixingAccrualFactor * r.dfEnd)
	dfEndBar := -forwardBar * r.dfStart / (f.FixingAccrualFactor * r.dfEnd * r.dfEnd)
	return single(f.Ccy, r.forwardCurve,
		discountingPoint(f.FixingPeriodStartTime, r.dfStart, dfStartBar),
		discountingPoint(f.FixingPeriodEndTime, r.dfEnd, dfEndBar),
	), nil
}

package pricing

import (
	"fmt"

	"github.com/meenmo/mocurve/instrument"
	"github.com/meenmo/mocurve/market"
	"github.com/meenmo/mocurve/money"
	"github.com/meenmo/mocurve/sensitivity"
)

type flow struct {
	time   float64
	amount float64
}

func bondFlows(b *instrument.BondFixed) []flow {
	out := make([]flow, 0, len(b.Coupons)+1)
	for _, c := range b.Coupons {
		out = append(out, flow{time: c.PaymentTime, amount: c.Notional * c.AccrualFactor * c.Rate})
	}
	if b.Principal != nil {
		out = append(out, flow{time: b.Principal.PaymentTime, amount: b.Principal.Amount})
	}
	return out
}

// ---------------------------------------------------------------------------
// Fixed coupon bond
// ---------------------------------------------------------------------------

// BondFixedDiscounting discounts the bond cash flows on the currency discounting curve.
type BondFixedDiscounting struct{}

func (BondFixedDiscounting) PresentValue(b *instrument.BondFixed, m *market.Bundle) (money.MultipleCurrencyAmount, error) {
	if err := checkMarket("BondFixedDiscounting", m); err != nil {
		return money.MultipleCurrencyAmount{}, err
	}
	dc, err := m.DiscountCurve(b.Ccy)
	if err != nil {
		return money.MultipleCurrencyAmount{}, fmt.Errorf("BondFixedDiscounting: %w", err)
	}
	pv := 0.0
	for _, f := range bondFlows(b) {
		pv += f.amount * dc.DiscountFactor(f.time)
	}
	return money.Of(b.Ccy, b.Notional*pv), nil
}

func (BondFixedDiscounting) CurveSensitivity(b *instrument.BondFixed, m *market.Bundle) (sensitivity.MultipleCurrencyCurveSensitivity, error) {
	if err := checkMarket("BondFixedDiscounting", m); err != nil {
		return noSensitivity{}, err
	}
	dc, err := m.DiscountCurve(b.Ccy)
	if err != nil {
		return noSensitivity{}, fmt.Errorf("BondFixedDiscounting: %w", err)
	}
	flows := bondFlows(b)
	points := make([]sensitivity.Point, len(flows))
	for i, f := range flows {
		points[i] = discountingPoint(f.time, dc.DiscountFactor(f.time), b.Notional*f.amount)
	}
	return single(b.Ccy, dc.Name(), points...), nil
}

// DirtyPrice returns the dirty price per unit notional, valued at SettlementTime.
func (BondFixedDiscounting) DirtyPrice(b *instrument.BondFixed, m *market.Bundle) (float64, error) {
	if err := checkMarket("BondFixedDiscounting", m); err != nil {
		return 0, err
	}
	dc, err := m.DiscountCurve(b.Ccy)
	if err != nil {
		return 0, fmt.Errorf("BondFixedDiscounting: %w", err)
	}
	pv := 0.0
	for _, f := range bondFlows(b) {
		pv += f.amount * dc.DiscountFactor(f.time)
	}
	return pv / dc.DiscountFactor(b.SettlementTime), nil
}

// ---------------------------------------------------------------------------
// Bond future
// ---------------------------------------------------------------------------

// BondFutureDiscounting prices the future off the cheapest-to-deliver bond:
// price = min_i (forward dirty price_i - accrued_i) / conversion factor_i.
type BondFutureDiscounting struct{}

type bondFutureRecord struct {
	curve      string
	dfDelivery float64
	cheapest   int
	// forwardDirty of the cheapest bond.
	forwardDirty float64
	dfs          []float64
	price        float64
}

func (BondFutureDiscounting) forward(f *instrument.BondFuture, m *market.Bundle) (bondFutureRecord, error) {
	if err := checkMarket("BondFutureDiscounting", m); err != nil {
		return bondFutureRecord{}, err
	}
	if err := f.Validate(); err != nil {
		return bondFutureRecord{}, fmt.Errorf("BondFutureDiscounting: %w", err)
	}
	dc, err := m.DiscountCurve(f.Ccy)
	if err != nil {
		return bondFutureRecord{}, fmt.Errorf("BondFutureDiscounting: %w", err)
	}
	r := bondFutureRecord{curve: dc.Name(), dfDelivery: dc.DiscountFactor(f.DeliveryTime), cheapest: -1}
	for i, b := range f.Basket {
		flows := bondFlows(b)
		dfs := make([]float64, len(flows))
		pv := 0.0
		for j, fl := range flows {
			dfs[j] = dc.DiscountFactor(fl.time)
			pv += fl.amount * dfs[j]
		}
		forwardDirty := pv / r.dfDelivery
		price := (forwardDirty - b.AccruedInterest) / f.ConversionFactors[i]
		if r.cheapest < 0 || price < r.price {
			r.cheapest, r.price, r.forwardDirty, r.dfs = i, price, forwardDirty, dfs
		}
	}
	return r, nil
}

// Price returns the theoretical futures price.
func (p BondFutureDiscounting) Price(f *instrument.BondFuture, m *market.Bundle) (float64, error) {
	r, err := p.forward(f, m)
	if err != nil {
		return 0, err
	}
	return r.price, nil
}

func (p BondFutureDiscounting) PresentValue(f *instrument.BondFuture, m *market.Bundle) (money.MultipleCurrencyAmount, error) {
	r, err := p.forward(f, m)
	if err != nil {
		return money.MultipleCurrencyAmount{}, err
	}
	return money.Of(f.Ccy, (r.price-f.ReferencePrice)*f.Notional*f.Quantity), nil
}

func (p BondFutureDiscounting) CurveSensitivity(f *instrument.BondFuture, m *market.Bundle) (sensitivity.MultipleCurrencyCurveSensitivity, error) {
	r, err := p.forward(f, m)
	if err != nil {
		return noSensitivity{}, err
	}
	priceBar := f.Notional * f.Quantity
	forwardDirtyBar := priceBar / f.ConversionFactors[r.cheapest]
	flows := bondFlows(f.Basket[r.cheapest])
	points := make([]sensitivity.Point, 0, len(flows)+1)
	for j, fl := range flows {
		points = append(points, discountingPoint(fl.time, r.dfs[j], forwardDirtyBar*fl.amount/r.dfDelivery))
	}
	dfDeliveryBar := -forwardDirtyBar * r.forwardDirty / r.dfDelivery
	points = append(points, discountingPoint(f.DeliveryTime, r.dfDelivery, dfDeliveryBar))
	return single(f.Ccy, r.curve, points...), nil
}

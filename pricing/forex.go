package pricing

import (
	"fmt"

	"github.com/meenmo/mocurve/instrument"
	"github.com/meenmo/mocurve/market"
	"github.com/meenmo/mocurve/money"
	"github.com/meenmo/mocurve/sensitivity"
)

// ---------------------------------------------------------------------------
// FX forward
// ---------------------------------------------------------------------------

// ForexForwardDiscounting discounts each leg on its own currency curve.
// The present value is reported in both currencies.
type ForexForwardDiscounting struct{}

func (ForexForwardDiscounting) PresentValue(f *instrument.ForexForward, m *market.Bundle) (money.MultipleCurrencyAmount, error) {
	if err := checkMarket("ForexForwardDiscounting", m); err != nil {
		return money.MultipleCurrencyAmount{}, err
	}
	df1, err := m.DiscountFactor(f.Currency1, f.PaymentTime)
	if err != nil {
		return money.MultipleCurrencyAmount{}, fmt.Errorf("ForexForwardDiscounting: %w", err)
	}
	df2, err := m.DiscountFactor(f.Currency2, f.PaymentTime)
	if err != nil {
		return money.MultipleCurrencyAmount{}, fmt.Errorf("ForexForwardDiscounting: %w", err)
	}
	return money.Of(f.Currency1, f.Amount1*df1).PlusAmount(f.Currency2, f.Amount2*df2), nil
}

func (ForexForwardDiscounting) CurveSensitivity(f *instrument.ForexForward, m *market.Bundle) (sensitivity.MultipleCurrencyCurveSensitivity, error) {
	if err := checkMarket("ForexForwardDiscounting", m); err != nil {
		return noSensitivity{}, err
	}
	dc1, err := m.DiscountCurve(f.Currency1)
	if err != nil {
		return noSensitivity{}, fmt.Errorf("ForexForwardDiscounting: %w", err)
	}
	dc2, err := m.DiscountCurve(f.Currency2)
	if err != nil {
		return noSensitivity{}, fmt.Errorf("ForexForwardDiscounting: %w", err)
	}
	t := f.PaymentTime
	return single(f.Currency1, dc1.Name(), discountingPoint(t, dc1.DiscountFactor(t), f.Amount1)).
		Plus(single(f.Currency2, dc2.Name(), discountingPoint(t, dc2.DiscountFactor(t), f.Amount2))), nil
}

// ---------------------------------------------------------------------------
// Non-deliverable forward
// ---------------------------------------------------------------------------

// ForexNonDeliverableForwardDiscounting values the NDF by its currency exposures:
// N DF2(pay) in Currency2 and -N X DF1(pay) in Currency1.
type ForexNonDeliverableForwardDiscounting struct{}

func (ForexNonDeliverableForwardDiscounting) equivalent(f *instrument.ForexNonDeliverableForward) *instrument.ForexForward {
	return &instrument.ForexForward{
		Currency1:   f.Currency1,
		Amount1:     -f.Notional * f.ExchangeRate,
		Currency2:   f.Currency2,
		Amount2:     f.Notional,
		PaymentTime: f.PaymentTime,
	}
}

func (p ForexNonDeliverableForwardDiscounting) PresentValue(f *instrument.ForexNonDeliverableForward, m *market.Bundle) (money.MultipleCurrencyAmount, error) {
	return ForexForwardDiscounting{}.PresentValue(p.equivalent(f), m)
}

func (p ForexNonDeliverableForwardDiscounting) CurveSensitivity(f *instrument.ForexNonDeliverableForward, m *market.Bundle) (sensitivity.MultipleCurrencyCurveSensitivity, error) {
	return ForexForwardDiscounting{}.CurveSensitivity(p.equivalent(f), m)
}

// ---------------------------------------------------------------------------
// Vanilla option
// ---------------------------------------------------------------------------

// fxOptionInputs are the market quantities shared by the FX option methods.
type fxOptionInputs struct {
	domesticCurve string
	foreignCurve  string
	dfDomestic    float64
	dfForeign     float64
	spot          float64
	forward       float64
	vol           float64
}

func fxInputs(op string, fwd *instrument.ForexForward, m *market.Bundle) (fxOptionInputs, error) {
	if fwd == nil {
		return fxOptionInputs{}, fmt.Errorf("%s: %w: nil underlying forward", op, instrument.ErrInvalidInstrument)
	}
	if err := checkMarket(op, m); err != nil {
		return fxOptionInputs{}, err
	}
	dom, err := m.DiscountCurve(fwd.Currency2)
	if err != nil {
		return fxOptionInputs{}, fmt.Errorf("%s: %w", op, err)
	}
	foreign, err := m.DiscountCurve(fwd.Currency1)
	if err != nil {
		return fxOptionInputs{}, fmt.Errorf("%s: %w", op, err)
	}
	spot, err := m.FXRate(fwd.Currency1, fwd.Currency2)
	if err != nil {
		return fxOptionInputs{}, fmt.Errorf("%s: %w", op, err)
	}
	vol, err := m.FXVolatility(fwd.Currency1, fwd.Currency2)
	if err != nil {
		return fxOptionInputs{}, fmt.Errorf("%s: %w", op, err)
	}
	in := fxOptionInputs{
		domesticCurve: dom.Name(),
		foreignCurve:  foreign.Name(),
		dfDomestic:    dom.DiscountFactor(fwd.PaymentTime),
		dfForeign:     foreign.DiscountFactor(fwd.PaymentTime),
		spot:          spot,
		vol:           vol,
	}
	in.forward = spot * in.dfForeign / in.dfDomestic
	return in, nil
}

func longShort(isLong bool) float64 {
	if isLong {
		return 1
	}
	return -1
}

// fxOptionSensitivity runs the shared reverse sweep from the adjoints of the
// discount factors and of the forward rate.
func fxOptionSensitivity(ccy money.Currency, in fxOptionInputs, t, dfDomesticBar, forwardBar float64) sensitivity.MultipleCurrencyCurveSensitivity {
	dfForeignBar := forwardBar * in.spot / in.dfDomestic
	dfDomesticBar -= forwardBar * in.forward / in.dfDomestic
	s := sensitivity.Of(in.domesticCurve, discountingPoint(t, in.dfDomestic, dfDomesticBar)).
		Plus(sensitivity.Of(in.foreignCurve, discountingPoint(t, in.dfForeign, dfForeignBar)))
	return sensitivity.OfCurrency(ccy, s)
}

// ForexOptionVanillaBlack prices with Garman-Kohlhagen using the flat pair volatility.
type ForexOptionVanillaBlack struct{}

type vanillaRecord struct {
	inputs fxOptionInputs
	black  blackResult
	scale  float64 // long/short sign times foreign notional
}

func (ForexOptionVanillaBlack) forward(o *instrument.ForexOptionVanilla, m *market.Bundle) (vanillaRecord, error) {
	if err := o.Validate(); err != nil {
		return vanillaRecord{}, fmt.Errorf("ForexOptionVanillaBlack: %w", err)
	}
	in, err := fxInputs("ForexOptionVanillaBlack", o.Underlying, m)
	if err != nil {
		return vanillaRecord{}, err
	}
	return vanillaRecord{
		inputs: in,
		black:  black(in.forward, o.Underlying.Strike(), o.ExpiryTime, in.vol, o.IsCall),
		scale:  longShort(o.IsLong) * o.Notional(),
	}, nil
}

func (p ForexOptionVanillaBlack) PresentValue(o *instrument.ForexOptionVanilla, m *market.Bundle) (money.MultipleCurrencyAmount, error) {
	r, err := p.forward(o, m)
	if err != nil {
		return money.MultipleCurrencyAmount{}, err
	}
	return money.Of(o.Currency(), r.scale*r.inputs.dfDomestic*r.black.price), nil
}

func (p ForexOptionVanillaBlack) CurveSensitivity(o *instrument.ForexOptionVanilla, m *market.Bundle) (sensitivity.MultipleCurrencyCurveSensitivity, error) {
	r, err := p.forward(o, m)
	if err != nil {
		return noSensitivity{}, err
	}
	priceBar := r.scale * r.inputs.dfDomestic
	dfDomesticBar := r.scale * r.black.price
	forwardBar := priceBar * r.black.dForward
	return fxOptionSensitivity(o.Currency(), r.inputs, o.Underlying.PaymentTime, dfDomesticBar, forwardBar), nil
}

// Vega returns the present value sensitivity to the pair volatility.
func (p ForexOptionVanillaBlack) Vega(o *instrument.ForexOptionVanilla, m *market.Bundle) (money.Amount, error) {
	r, err := p.forward(o, m)
	if err != nil {
		return money.Amount{}, err
	}
	return money.Amount{Currency: o.Currency(), Value: r.scale * r.inputs.dfDomestic * r.black.dVol}, nil
}

// ---------------------------------------------------------------------------
// Digital option
// ---------------------------------------------------------------------------

// ForexOptionDigitalBlack pays |Amount2| of the domestic currency when in the money.
type ForexOptionDigitalBlack struct{}

type digitalRecord struct {
	inputs fxOptionInputs
	black  blackResult
	scale  float64
}

func (ForexOptionDigitalBlack) forward(o *instrument.ForexOptionDigital, m *market.Bundle) (digitalRecord, error) {
	if err := o.Validate(); err != nil {
		return digitalRecord{}, fmt.Errorf("ForexOptionDigitalBlack: %w", err)
	}
	in, err := fxInputs("ForexOptionDigitalBlack", o.Underlying, m)
	if err != nil {
		return digitalRecord{}, err
	}
	amount := o.Underlying.Amount2
	if amount < 0 {
		amount = -amount
	}
	return digitalRecord{
		inputs: in,
		black:  blackDigital(in.forward, o.Underlying.Strike(), o.ExpiryTime, in.vol, o.IsCall),
		scale:  longShort(o.IsLong) * amount,
	}, nil
}

func (p ForexOptionDigitalBlack) PresentValue(o *instrument.ForexOptionDigital, m *market.Bundle) (money.MultipleCurrencyAmount, error) {
	r, err := p.forward(o, m)
	if err != nil {
		return money.MultipleCurrencyAmount{}, err
	}
	return money.Of(o.Currency(), r.scale*r.inputs.dfDomestic*r.black.price), nil
}

func (p ForexOptionDigitalBlack) CurveSensitivity(o *instrument.ForexOptionDigital, m *market.Bundle) (sensitivity.MultipleCurrencyCurveSensitivity, error) {
	r, err := p.forward(o, m)
	if err != nil {
		return noSensitivity{}, err
	}
	priceBar := r.scale * r.inputs.dfDomestic
	dfDomesticBar := r.scale * r.black.price
	forwardBar := priceBar * r.black.dForward
	return fxOptionSensitivity(o.Currency(), r.inputs, o.Underlying.PaymentTime, dfDomesticBar, forwardBar), nil
}

func (p ForexOptionDigitalBlack) Vega(o *instrument.ForexOptionDigital, m *market.Bundle) (money.Amount, error) {
	r, err := p.forward(o, m)
	if err != nil {
		return money.Amount{}, err
	}
	return money.Amount{Currency: o.Currency(), Value: r.scale * r.inputs.dfDomestic * r.black.dVol}, nil
}

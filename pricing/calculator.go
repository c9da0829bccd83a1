package pricing

import (
	"fmt"

	"github.com/meenmo/mocurve/instrument"
	"github.com/meenmo/mocurve/market"
	"github.com/meenmo/mocurve/money"
	"github.com/meenmo/mocurve/sensitivity"
)

// PresentValueCalculator dispatches instruments to their present value method.
type PresentValueCalculator struct {
	methods Methods
}

func NewPresentValueCalculator(methods Methods) PresentValueCalculator {
	return PresentValueCalculator{methods: methods}
}

// PresentValue prices inst against m.
func (c PresentValueCalculator) PresentValue(inst instrument.Instrument, m *market.Bundle) (money.MultipleCurrencyAmount, error) {
	if err := checkMarket("PresentValue", m); err != nil {
		return money.MultipleCurrencyAmount{}, err
	}
	return instrument.Visit[money.MultipleCurrencyAmount](presentValueVisitor{methods: c.methods, market: m}, inst)
}

// CurveSensitivityCalculator dispatches instruments to their curve sensitivity method.
type CurveSensitivityCalculator struct {
	methods Methods
}

func NewCurveSensitivityCalculator(methods Methods) CurveSensitivityCalculator {
	return CurveSensitivityCalculator{methods: methods}
}

// CurveSensitivity returns the point sensitivities of inst's present value, cleaned.
func (c CurveSensitivityCalculator) CurveSensitivity(inst instrument.Instrument, m *market.Bundle) (sensitivity.MultipleCurrencyCurveSensitivity, error) {
	if err := checkMarket("CurveSensitivity", m); err != nil {
		return noSensitivity{}, err
	}
	s, err := instrument.Visit[sensitivity.MultipleCurrencyCurveSensitivity](curveSensitivityVisitor{methods: c.methods, market: m}, inst)
	if err != nil {
		return noSensitivity{}, err
	}
	return s.Cleaned(), nil
}

func noMethod(inst instrument.Instrument) error {
	return fmt.Errorf("%w: no method configured for %s", instrument.ErrUnsupportedInstrument, inst.Kind())
}

func presentValue[T instrument.Instrument](method Method[T], inst T, m *market.Bundle) (money.MultipleCurrencyAmount, error) {
	if method == nil {
		return money.MultipleCurrencyAmount{}, noMethod(inst)
	}
	return method.PresentValue(inst, m)
}

func curveSensitivity[T instrument.Instrument](method Method[T], inst T, m *market.Bundle) (sensitivity.MultipleCurrencyCurveSensitivity, error) {
	if method == nil {
		return noSensitivity{}, noMethod(inst)
	}
	return method.CurveSensitivity(inst, m)
}

// ---------------------------------------------------------------------------
// Present value
// ---------------------------------------------------------------------------

type presentValueVisitor struct {
	methods Methods
	market  *market.Bundle
}

type pv = money.MultipleCurrencyAmount

func (v presentValueVisitor) VisitDeposit(x *instrument.Deposit) (pv, error) {
	return presentValue(v.methods.Deposit, x, v.market)
}

func (v presentValueVisitor) VisitPaymentFixed(x *instrument.PaymentFixed) (pv, error) {
	return presentValue(v.methods.PaymentFixed, x, v.market)
}

func (v presentValueVisitor) VisitCouponFixed(x *instrument.CouponFixed) (pv, error) {
	return presentValue(v.methods.CouponFixed, x, v.market)
}

func (v presentValueVisitor) VisitCouponIbor(x *instrument.CouponIbor) (pv, error) {
	return presentValue(v.methods.CouponIbor, x, v.market)
}

func (v presentValueVisitor) VisitCouponOIS(x *instrument.CouponOIS) (pv, error) {
	return presentValue(v.methods.CouponOIS, x, v.market)
}

func (v presentValueVisitor) VisitAnnuity(x *instrument.Annuity) (pv, error) {
	var total pv
	for i, p := range x.Payments {
		a, err := instrument.Visit[pv](v, p)
		if err != nil {
			return pv{}, fmt.Errorf("Annuity payment %d: %w", i, err)
		}
		total = total.Plus(a)
	}
	return total, nil
}

func (v presentValueVisitor) VisitSwap(x *instrument.Swap) (pv, error) {
	if x.First == nil || x.Second == nil {
		return pv{}, fmt.Errorf("Swap: %w: missing leg", instrument.ErrInvalidInstrument)
	}
	first, err := v.VisitAnnuity(x.First)
	if err != nil {
		return pv{}, err
	}
	second, err := v.VisitAnnuity(x.Second)
	if err != nil {
		return pv{}, err
	}
	return first.Plus(second), nil
}

func (v presentValueVisitor) VisitInterestRateFuture(x *instrument.InterestRateFuture) (pv, error) {
	return presentValue(v.methods.InterestRateFuture, x, v.market)
}

func (v presentValueVisitor) VisitBondFixed(x *instrument.BondFixed) (pv, error) {
	return presentValue(v.methods.BondFixed, x, v.market)
}

func (v presentValueVisitor) VisitBondFuture(x *instrument.BondFuture) (pv, error) {
	return presentValue(v.methods.BondFuture, x, v.market)
}

func (v presentValueVisitor) VisitInflationZeroCouponMonthly(x *instrument.InflationZeroCouponMonthly) (pv, error) {
	return presentValue(v.methods.InflationZeroCouponMonthly, x, v.market)
}

func (v presentValueVisitor) VisitInflationZeroCouponInterpolation(x *instrument.InflationZeroCouponInterpolation) (pv, error) {
	return presentValue(v.methods.InflationZeroCouponInterpolation, x, v.market)
}

func (v presentValueVisitor) VisitForexForward(x *instrument.ForexForward) (pv, error) {
	return presentValue(v.methods.ForexForward, x, v.market)
}

func (v presentValueVisitor) VisitForexOptionVanilla(x *instrument.ForexOptionVanilla) (pv, error) {
	return presentValue(v.methods.ForexOptionVanilla, x, v.market)
}

func (v presentValueVisitor) VisitForexOptionSingleBarrier(x *instrument.ForexOptionSingleBarrier) (pv, error) {
	return presentValue(v.methods.ForexOptionSingleBarrier, x, v.market)
}

func (v presentValueVisitor) VisitForexOptionDigital(x *instrument.ForexOptionDigital) (pv, error) {
	return presentValue(v.methods.ForexOptionDigital, x, v.market)
}

func (v presentValueVisitor) VisitForexNonDeliverableForward(x *instrument.ForexNonDeliverableForward) (pv, error) {
	return presentValue(v.methods.ForexNonDeliverableForward, x, v.market)
}

func (v presentValueVisitor) VisitForexNonDeliverableOption(x *instrument.ForexNonDeliverableOption) (pv, error) {
	vanilla, err := x.EquivalentVanilla()
	if err != nil {
		return pv{}, err
	}
	return presentValue(v.methods.ForexOptionVanilla, vanilla, v.market)
}

// ---------------------------------------------------------------------------
// Curve sensitivity
// ---------------------------------------------------------------------------

type curveSensitivityVisitor struct {
	methods Methods
	market  *market.Bundle
}

type cs = sensitivity.MultipleCurrencyCurveSensitivity

func (v curveSensitivityVisitor) VisitDeposit(x *instrument.Deposit) (cs, error) {
	return curveSensitivity(v.methods.Deposit, x, v.market)
}

func (v curveSensitivityVisitor) VisitPaymentFixed(x *instrument.PaymentFixed) (cs, error) {
	return curveSensitivity(v.methods.PaymentFixed, x, v.market)
}

func (v curveSensitivityVisitor) VisitCouponFixed(x *instrument.CouponFixed) (cs, error) {
	return curveSensitivity(v.methods.CouponFixed, x, v.market)
}

func (v curveSensitivityVisitor) VisitCouponIbor(x *instrument.CouponIbor) (cs, error) {
	return curveSensitivity(v.methods.CouponIbor, x, v.market)
}

func (v curveSensitivityVisitor) VisitCouponOIS(x *instrument.CouponOIS) (cs, error) {
	return curveSensitivity(v.methods.CouponOIS, x, v.market)
}

func (v curveSensitivityVisitor) VisitAnnuity(x *instrument.Annuity) (cs, error) {
	var total cs
	for i, p := range x.Payments {
		s, err := instrument.Visit[cs](v, p)
		if err != nil {
			return cs{}, fmt.Errorf("Annuity payment %d: %w", i, err)
		}
		total = total.Plus(s)
	}
	return total, nil
}

func (v curveSensitivityVisitor) VisitSwap(x *instrument.Swap) (cs, error) {
	if x.First == nil || x.Second == nil {
		return cs{}, fmt.Errorf("Swap: %w: missing leg", instrument.ErrInvalidInstrument)
	}
	first, err := v.VisitAnnuity(x.First)
	if err != nil {
		return cs{}, err
	}
	second, err := v.VisitAnnuity(x.Second)
	if err != nil {
		return cs{}, err
	}
	return first.Plus(second), nil
}

func (v curveSensitivityVisitor) VisitInterestRateFuture(x *instrument.InterestRateFuture) (cs, error) {
	return curveSensitivity(v.methods.InterestRateFuture, x, v.market)
}

func (v curveSensitivityVisitor) VisitBondFixed(x *instrument.BondFixed) (cs, error) {
	return curveSensitivity(v.methods.BondFixed, x, v.market)
}

func (v curveSensitivityVisitor) VisitBondFuture(x *instrument.BondFuture) (cs, error) {
	return curveSensitivity(v.methods.BondFuture, x, v.market)
}

func (v curveSensitivityVisitor) VisitInflationZeroCouponMonthly(x *instrument.InflationZeroCouponMonthly) (cs, error) {
	return curveSensitivity(v.methods.InflationZeroCouponMonthly, x, v.market)
}

func (v curveSensitivityVisitor) VisitInflationZeroCouponInterpolation(x *instrument.InflationZeroCouponInterpolation) (cs, error) {
	return curveSensitivity(v.methods.InflationZeroCouponInterpolation, x, v.market)
}

func (v curveSensitivityVisitor) VisitForexForward(x *instrument.ForexForward) (cs, error) {
	return curveSensitivity(v.methods.ForexForward, x, v.market)
}

func (v curveSensitivityVisitor) VisitForexOptionVanilla(x *instrument.ForexOptionVanilla) (cs, error) {
	return curveSensitivity(v.methods.ForexOptionVanilla, x, v.market)
}

func (v curveSensitivityVisitor) VisitForexOptionSingleBarrier(x *instrument.ForexOptionSingleBarrier) (cs, error) {
	return curveSensitivity(v.methods.ForexOptionSingleBarrier, x, v.market)
}

func (v curveSensitivityVisitor) VisitForexOptionDigital(x *instrument.ForexOptionDigital) (cs, error) {
	return curveSensitivity(v.methods.ForexOptionDigital, x, v.market)
}

func (v curveSensitivityVisitor) VisitForexNonDeliverableForward(x *instrument.ForexNonDeliverableForward) (cs, error) {
	return curveSensitivity(v.methods.ForexNonDeliverableForward, x, v.market)
}

func (v curveSensitivityVisitor) VisitForexNonDeliverableOption(x *instrument.ForexNonDeliverableOption) (cs, error) {
	vanilla, err := x.EquivalentVanilla()
	if err != nil {
		return noSensitivity{}, err
	}
	return curveSensitivity(v.methods.ForexOptionVanilla, vanilla, v.market)
}

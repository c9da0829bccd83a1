// Package pricing holds the present value and curve sensitivity methods of
// every instrument kind, and the calculators that dispatch to them.
//
// Each method evaluates the price in a forward pass that keeps its
// intermediate quantities, then runs the adjoint (reverse) pass over them
// starting from pvBar = 1. Sensitivities to discounting and forward curves
// are expressed in zero-rate units (-t DF DFbar); sensitivities to price
// index curves in index units.
package pricing

import (
	"errors"
	"fmt"

	"github.com/meenmo/mocurve/instrument"
	"github.com/meenmo/mocurve/market"
	"github.com/meenmo/mocurve/money"
	"github.com/meenmo/mocurve/sensitivity"
)

var (
	ErrNilMarket         = errors.New("nil market")
	ErrInvalidVolatility = errors.New("invalid volatility")
)

// Method prices one instrument kind.
type Method[T instrument.Instrument] interface {
	PresentValue(inst T, m *market.Bundle) (money.MultipleCurrencyAmount, error)
	CurveSensitivity(inst T, m *market.Bundle) (sensitivity.MultipleCurrencyCurveSensitivity, error)
}

// Methods selects the method used for each kind. A nil entry makes that kind unsupported.
// Annuities and swaps are priced as the sum of their payments; non-deliverable options
// through ForexOptionVanilla on their deliverable equivalent.
type Methods struct {
	Deposit                          Method[*instrument.Deposit]
	PaymentFixed                     Method[*instrument.PaymentFixed]
	CouponFixed                      Method[*instrument.CouponFixed]
	CouponIbor                       Method[*instrument.CouponIbor]
	CouponOIS                        Method[*instrument.CouponOIS]
	InterestRateFuture               Method[*instrument.InterestRateFuture]
	BondFixed                        Method[*instrument.BondFixed]
	BondFuture                       Method[*instrument.BondFuture]
	InflationZeroCouponMonthly       Method[*instrument.InflationZeroCouponMonthly]
	InflationZeroCouponInterpolation Method[*instrument.InflationZeroCouponInterpolation]
	ForexForward                     Method[*instrument.ForexForward]
	ForexOptionVanilla               Method[*instrument.ForexOptionVanilla]
	ForexOptionSingleBarrier         Method[*instrument.ForexOptionSingleBarrier]
	ForexOptionDigital               Method[*instrument.ForexOptionDigital]
	ForexNonDeliverableForward       Method[*instrument.ForexNonDeliverableForward]
}

// DefaultMethods discounts every cash flow on its currency's discounting curve
// and prices FX options with the Black (Garman-Kohlhagen) model.
func DefaultMethods() Methods {
	return Methods{
		Deposit:                          DepositDiscounting{},
		PaymentFixed:                     PaymentFixedDiscounting{},
		CouponFixed:                      CouponFixedDiscounting{},
		CouponIbor:                       CouponIborDiscounting{},
		CouponOIS:                        CouponOISDiscounting{},
		InterestRateFuture:               InterestRateFutureDiscounting{},
		BondFixed:                        BondFixedDiscounting{},
		BondFuture:                       BondFutureDiscounting{},
		InflationZeroCouponMonthly:       InflationZeroCouponMonthlyDiscounting{},
		InflationZeroCouponInterpolation: InflationZeroCouponInterpolationDiscounting{},
		ForexForward:                     ForexForwardDiscounting{},
		ForexOptionVanilla:               ForexOptionVanillaBlack{},
		ForexOptionSingleBarrier:         ForexOptionSingleBarrierBlack{},
		ForexOptionDigital:               ForexOptionDigitalBlack{},
		ForexNonDeliverableForward:       ForexNonDeliverableForwardDiscounting{},
	}
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// discountingPoint converts a discount factor adjoint into a zero-rate sensitivity.
func discountingPoint(t, df, dfBar float64) sensitivity.Point {
	return sensitivity.Point{Time: t, Amount: -t * df * dfBar}
}

func single(ccy money.Currency, name string, points ...sensitivity.Point) sensitivity.MultipleCurrencyCurveSensitivity {
	return sensitivity.OfCurrency(ccy, sensitivity.Of(name, points...))
}

func checkMarket(op string, m *market.Bundle) error {
	if m == nil {
		return fmt.Errorf("%s: %w", op, ErrNilMarket)
	}
	return nil
}

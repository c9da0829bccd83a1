// Package instrument defines the time-based instrument value objects priced
// by the pricing package and the visitor used to dispatch on them.
//
// Instrument is a sealed interface: only types in this package implement it,
// and Visitor has one method per kind so that adding a kind breaks every
// visitor at compile time.
package instrument

import (
	"errors"

	"github.com/meenmo/mocurve/money"
)

var (
	ErrNilInstrument         = errors.New("nil instrument")
	ErrUnsupportedInstrument = errors.New("unsupported instrument")
	ErrInvalidInstrument     = errors.New("invalid instrument")
)

// Kind tags each instrument type.
type Kind int

const (
	KindDeposit Kind = iota + 1
	KindPaymentFixed
	KindCouponFixed
	KindCouponIbor
	KindCouponOIS
	KindAnnuity
	KindSwap
	KindInterestRateFuture
	KindBondFixed
	KindBondFuture
	KindInflationZeroCouponMonthly
	KindInflationZeroCouponInterpolation
	KindForexForward
	KindForexOptionVanilla
	KindForexOptionSingleBarrier
	KindForexOptionDigital
	KindForexNonDeliverableForward
	KindForexNonDeliverableOption
)

var kindNames = map[Kind]string{
	KindDeposit:                          "Deposit",
	KindPaymentFixed:                     "PaymentFixed",
	KindCouponFixed:                      "CouponFixed",
	KindCouponIbor:                       "CouponIbor",
	KindCouponOIS:                        "CouponOIS",
	KindAnnuity:                          "Annuity",
	KindSwap:                             "Swap",
	KindInterestRateFuture:               "InterestRateFuture",
	KindBondFixed:                        "BondFixed",
	KindBondFuture:                       "BondFuture",
	KindInflationZeroCouponMonthly:       "InflationZeroCouponMonthly",
	KindInflationZeroCouponInterpolation: "InflationZeroCouponInterpolation",
	KindForexForward:                     "ForexForward",
	KindForexOptionVanilla:               "ForexOptionVanilla",
	KindForexOptionSingleBarrier:         "ForexOptionSingleBarrier",
	KindForexOptionDigital:               "ForexOptionDigital",
	KindForexNonDeliverableForward:       "ForexNonDeliverableForward",
	KindForexNonDeliverableOption:        "ForexNonDeliverableOption",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// Instrument is a priceable value object. Times are year fractions from the valuation date.
type Instrument interface {
	Kind() Kind
	// Currency is the currency in which calibration residuals are measured.
	Currency() money.Currency
	sealed()
}

// IborIndex is a term rate index forwarded off its own curve.
type IborIndex struct {
	Name     string
	Currency money.Currency
}

// OvernightIndex is a compounded overnight index.
type OvernightIndex struct {
	Name     string
	Currency money.Currency
}

// PriceIndex is an inflation price index.
type PriceIndex struct {
	Name     string
	Currency money.Currency
}

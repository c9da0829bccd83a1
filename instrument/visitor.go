package instrument

import (
	"fmt"
	"reflect"
)

// Visitor computes an R for every instrument kind.
type Visitor[R any] interface {
	VisitDeposit(*Deposit) (R, error)
	VisitPaymentFixed(*PaymentFixed) (R, error)
	VisitCouponFixed(*CouponFixed) (R, error)
	VisitCouponIbor(*CouponIbor) (R, error)
	VisitCouponOIS(*CouponOIS) (R, error)
	VisitAnnuity(*Annuity) (R, error)
	VisitSwap(*Swap) (R, error)
	VisitInterestRateFuture(*InterestRateFuture) (R, error)
	VisitBondFixed(*BondFixed) (R, error)
	VisitBondFuture(*BondFuture) (R, error)
	VisitInflationZeroCouponMonthly(*InflationZeroCouponMonthly) (R, error)
	VisitInflationZeroCouponInterpolation(*InflationZeroCouponInterpolation) (R, error)
	VisitForexForward(*ForexForward) (R, error)
	VisitForexOptionVanilla(*ForexOptionVanilla) (R, error)
	VisitForexOptionSingleBarrier(*ForexOptionSingleBarrier) (R, error)
	VisitForexOptionDigital(*ForexOptionDigital) (R, error)
	VisitForexNonDeliverableForward(*ForexNonDeliverableForward) (R, error)
	VisitForexNonDeliverableOption(*ForexNonDeliverableOption) (R, error)
}

// Visit dispatches inst to the matching method of v.
func Visit[R any](v Visitor[R], inst Instrument) (R, error) {
	var zero R
	if isNil(inst) {
		return zero, ErrNilInstrument
	}
	switch x := inst.(type) {
	case *Deposit:
		return v.VisitDeposit(x)
	case *PaymentFixed:
		return v.VisitPaymentFixed(x)
	case *CouponFixed:
		return v.VisitCouponFixed(x)
	case *CouponIbor:
		return v.VisitCouponIbor(x)
	case *CouponOIS:
		return v.VisitCouponOIS(x)
	case *Annuity:
		return v.VisitAnnuity(x)
	case *Swap:
		return v.VisitSwap(x)
	case *InterestRateFuture:
		return v.VisitInterestRateFuture(x)
	case *BondFixed:
		return v.VisitBondFixed(x)
	case *BondFuture:
		return v.VisitBondFuture(x)
	case *InflationZeroCouponMonthly:
		return v.VisitInflationZeroCouponMonthly(x)
	case *InflationZeroCouponInterpolation:
		return v.VisitInflationZeroCouponInterpolation(x)
	case *ForexForward:
		return v.VisitForexForward(x)
	case *ForexOptionVanilla:
		return v.VisitForexOptionVanilla(x)
	case *ForexOptionSingleBarrier:
		return v.VisitForexOptionSingleBarrier(x)
	case *ForexOptionDigital:
		return v.VisitForexOptionDigital(x)
	case *ForexNonDeliverableForward:
		return v.VisitForexNonDeliverableForward(x)
	case *ForexNonDeliverableOption:
		return v.VisitForexNonDeliverableOption(x)
	default:
		return zero, fmt.Errorf("Visit: %w: %T", ErrUnsupportedInstrument, inst)
	}
}

// UnsupportedVisitor answers ErrUnsupportedInstrument for every kind.
// Embed it in visitors that only handle a subset of kinds.
type UnsupportedVisitor[R any] struct{}

func unsupported[R any](inst Instrument) (R, error) {
	var zero R
	return zero, fmt.Errorf("%w: %s", ErrUnsupportedInstrument, inst.Kind())
}

func (UnsupportedVisitor[R]) VisitDeposit(x *Deposit) (R, error) {
	return unsupported[R](x)
}
func (UnsupportedVisitor[R]) VisitPaymentFixed(x *PaymentFixed) (R, error) {
	return unsupported[R](x)
}
func (UnsupportedVisitor[R]) VisitCouponFixed(x *CouponFixed) (R, error) {
	return unsupported[R](x)
}
func (UnsupportedVisitor[R]) VisitCouponIbor(x *CouponIbor) (R, error) {
	return unsupported[R](x)
}
func (UnsupportedVisitor[R]) VisitCouponOIS(x *CouponOIS) (R, error) {
	return unsupported[R](x)
}
func (UnsupportedVisitor[R]) VisitAnnuity(x *Annuity) (R, error) {
	return unsupported[R](x)
}
func (UnsupportedVisitor[R]) VisitSwap(x *Swap) (R, error) {
	return unsupported[R](x)
}
func (UnsupportedVisitor[R]) VisitInterestRateFuture(x *InterestRateFuture) (R, error) {
	return unsupported[R](x)
}
func (UnsupportedVisitor[R]) VisitBondFixed(x *BondFixed) (R, error) {
	return unsupported[R](x)
}
func (UnsupportedVisitor[R]) VisitBondFuture(x *BondFuture) (R, error) {
	return unsupported[R](x)
}
func (UnsupportedVisitor[R]) VisitInflationZeroCouponMonthly(x *InflationZeroCouponMonthly) (R, error) {
	return unsupported[R](x)
}
func (UnsupportedVisitor[R]) VisitInflationZeroCouponInterpolation(x *InflationZeroCouponInterpolation) (R, error) {
	return unsupported[R](x)
}
func (UnsupportedVisitor[R]) VisitForexForward(x *ForexForward) (R, error) {
	return unsupported[R](x)
}
func (UnsupportedVisitor[R]) VisitForexOptionVanilla(x *ForexOptionVanilla) (R, error) {
	return unsupported[R](x)
}
func (UnsupportedVisitor[R]) VisitForexOptionSingleBarrier(x *ForexOptionSingleBarrier) (R, error) {
	return unsupported[R](x)
}
func (UnsupportedVisitor[R]) VisitForexOptionDigital(x *ForexOptionDigital) (R, error) {
	return unsupported[R](x)
}
func (UnsupportedVisitor[R]) VisitForexNonDeliverableForward(x *ForexNonDeliverableForward) (R, error) {
	return unsupported[R](x)
}
func (UnsupportedVisitor[R]) VisitForexNonDeliverableOption(x *ForexNonDeliverableOption) (R, error) {
	return unsupported[R](x)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}

package calibration

import (
	"fmt"
	"math"

	"github.com/meenmo/mocurve/instrument"
)

// NodeTimeCalculator decides where on the curve an instrument pins a node.
type NodeTimeCalculator interface {
	NodeTime(inst instrument.Instrument) (float64, error)
}

// MaturityNodeTime places the node at the last time the instrument depends on:
// the end of the last accrual or fixing period, or the last payment.
// Inflation instruments use their reference index time.
type MaturityNodeTime struct{}

func (MaturityNodeTime) NodeTime(inst instrument.Instrument) (float64, error) {
	return instrument.Visit[float64](maturityVisitor{}, inst)
}

// NodeTimes applies calc to every instrument.
func NodeTimes(calc NodeTimeCalculator, instruments []instrument.Instrument) ([]float64, error) {
	out := make([]float64, len(instruments))
	for i, inst := range instruments {
		t, err := calc.NodeTime(inst)
		if err != nil {
			return nil, fmt.Errorf("NodeTimes: instrument %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

type maturityVisitor struct{}

func (maturityVisitor) VisitDeposit(x *instrument.Deposit) (float64, error) {
	return x.EndTime, nil
}

func (maturityVisitor) VisitPaymentFixed(x *instrument.PaymentFixed) (float64, error) {
	return x.PaymentTime, nil
}

func (maturityVisitor) VisitCouponFixed(x *instrument.CouponFixed) (float64, error) {
	return x.PaymentTime, nil
}

func (maturityVisitor) VisitCouponIbor(x *instrument.CouponIbor) (float64, error) {
	return math.Max(x.PaymentTime, x.FixingPeriodEndTime), nil
}

func (maturityVisitor) VisitCouponOIS(x *instrument.CouponOIS) (float64, error) {
	return math.Max(x.PaymentTime, x.FixingPeriodEndTime), nil
}

func (v maturityVisitor) VisitAnnuity(x *instrument.Annuity) (float64, error) {
	last := math.Inf(-1)
	for _, p := range x.Payments {
		t, err := instrument.Visit[float64](v, p)
		if err != nil {
			return 0, err
		}
		last = math.Max(last, t)
	}
	if math.IsInf(last, -1) {
		return 0, fmt.Errorf("NodeTime: %w: empty annuity", instrument.ErrInvalidInstrument)
	}
	return last, nil
}

func (v maturityVisitor) VisitSwap(x *instrument.Swap) (float64, error) {
	if x.First == nil || x.Second == nil {
		return 0, fmt.Errorf("NodeTime: %w: swap leg is nil", instrument.ErrInvalidInstrument)
	}
	t1, err := v.VisitAnnuity(x.First)
	if err != nil {
		return 0, err
	}
	t2, err := v.VisitAnnuity(x.Second)
	if err != nil {
		return 0, err
	}
	return math.Max(t1, t2), nil
}

func (maturityVisitor) VisitInterestRateFuture(x *instrument.InterestRateFuture) (float64, error) {
	return x.FixingPeriodEndTime, nil
}

func (maturityVisitor) VisitBondFixed(x *instrument.BondFixed) (float64, error) {
	last := math.Inf(-1)
	if x.Principal != nil {
		last = x.Principal.PaymentTime
	}
	for _, c := range x.Coupons {
		last = math.Max(last, c.PaymentTime)
	}
	if math.IsInf(last, -1) {
		return 0, fmt.Errorf("NodeTime: %w: bond without cash flows", instrument.ErrInvalidInstrument)
	}
	return last, nil
}

func (v maturityVisitor) VisitBondFuture(x *instrument.BondFuture) (float64, error) {
	if err := x.Validate(); err != nil {
		return 0, err
	}
	last := math.Inf(-1)
	for _, b := range x.Basket {
		t, err := v.VisitBondFixed(b)
		if err != nil {
			return 0, err
		}
		last = math.Max(last, t)
	}
	return last, nil
}

func (maturityVisitor) VisitInflationZeroCouponMonthly(x *instrument.InflationZeroCouponMonthly) (float64, error) {
	return x.ReferenceEndTime, nil
}

func (maturityVisitor) VisitInflationZeroCouponInterpolation(x *instrument.InflationZeroCouponInterpolation) (float64, error) {
	return math.Max(x.ReferenceEndTimes[0], x.ReferenceEndTimes[1]), nil
}

func (maturityVisitor) VisitForexForward(x *instrument.ForexForward) (float64, error) {
	return x.PaymentTime, nil
}

func (maturityVisitor) VisitForexOptionVanilla(x *instrument.ForexOptionVanilla) (float64, error) {
	if err := x.Validate(); err != nil {
		return 0, err
	}
	return math.Max(x.ExpiryTime, x.Underlying.PaymentTime), nil
}

func (v maturityVisitor) VisitForexOptionSingleBarrier(x *instrument.ForexOptionSingleBarrier) (float64, error) {
	if err := x.Validate(); err != nil {
		return 0, err
	}
	return v.VisitForexOptionVanilla(x.Underlying)
}

func (maturityVisitor) VisitForexOptionDigital(x *instrument.ForexOptionDigital) (float64, error) {
	if err := x.Validate(); err != nil {
		return 0, err
	}
	return math.Max(x.ExpiryTime, x.Underlying.PaymentTime), nil
}

func (maturityVisitor) VisitForexNonDeliverableForward(x *instrument.ForexNonDeliverableForward) (float64, error) {
	return x.PaymentTime, nil
}

func (maturityVisitor) VisitForexNonDeliverableOption(x *instrument.ForexNonDeliverableOption) (float64, error) {
	if err := x.Validate(); err != nil {
		return 0, err
	}
	return math.Max(x.ExpiryTime, x.Underlying.PaymentTime), nil
}

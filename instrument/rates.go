package instrument

import (
	"fmt"

	"github.com/meenmo/mocurve/money"
)

// Deposit pays Notional at StartTime and receives Notional (1 + Rate AccrualFactor) at EndTime.
type Deposit struct {
	Ccy           money.Currency
	StartTime     float64
	EndTime       float64
	AccrualFactor float64
	Rate          float64
	Notional      float64
}

// PaymentFixed is a single known cash flow.
type PaymentFixed struct {
	Ccy         money.Currency
	PaymentTime float64
	Amount      float64
}

// CouponFixed pays Notional AccrualFactor Rate at PaymentTime.
type CouponFixed struct {
	Ccy           money.Currency
	PaymentTime   float64
	AccrualFactor float64
	Notional      float64
	Rate          float64
}

// CouponIbor pays Notional AccrualFactor (L + Spread) where L is fixed at FixingTime.
type CouponIbor struct {
	Ccy                   money.Currency
	PaymentTime           float64
	AccrualFactor         float64
	Notional              float64
	Index                 IborIndex
	FixingTime            float64
	FixingPeriodStartTime float64
	FixingPeriodEndTime   float64
	FixingAccrualFactor   float64
	Spread                float64
}

// CouponOIS pays the compounded overnight rate over the fixing period.
// NotionalAccrued already includes any part of the period fixed to date.
type CouponOIS struct {
	Ccy                   money.Currency
	PaymentTime           float64
	AccrualFactor         float64
	Notional              float64
	NotionalAccrued       float64
	Index                 OvernightIndex
	FixingPeriodStartTime float64
	FixingPeriodEndTime   float64
	FixingAccrualFactor   float64
}

// Annuity is a leg of payments in a single currency.
type Annuity struct {
	Payments []Instrument
}

// NewAnnuity checks that every payment is in the same currency.
func NewAnnuity(payments ...Instrument) (*Annuity, error) {
	if len(payments) == 0 {
		return nil, fmt.Errorf("NewAnnuity: %w: no payments", ErrInvalidInstrument)
	}
	var ccy money.Currency
	for i, p := range payments {
		if isNil(p) {
			return nil, fmt.Errorf("NewAnnuity: %w: payment %d", ErrNilInstrument, i)
		}
		if i == 0 {
			ccy = p.Currency()
		}
		if p.Currency() != ccy {
			return nil, fmt.Errorf("NewAnnuity: %w: payment %d in %s, leg in %s", ErrInvalidInstrument, i, p.Currency(), ccy)
		}
	}
	return &Annuity{Payments: payments}, nil
}

// Swap holds two legs; signs are carried by the leg notionals.
type Swap struct {
	First  *Annuity
	Second *Annuity
}

// InterestRateFuture is a futures contract on a term rate, margined daily.
type InterestRateFuture struct {
	Ccy                   money.Currency
	LastTradingTime       float64
	Index                 IborIndex
	FixingPeriodStartTime float64
	FixingPeriodEndTime   float64
	FixingAccrualFactor   float64
	Notional              float64
	PaymentAccrualFactor  float64
	Quantity              float64
	ReferencePrice        float64
}

// BondFixed is a fixed coupon bond described by its cash flows after settlement.
// Coupons use a unit notional; Notional scales the whole bond.
type BondFixed struct {
	Ccy            money.Currency
	SettlementTime float64
	Coupons        []*CouponFixed
	Principal      *PaymentFixed
	// AccruedInterest at settlement, per unit notional.
	AccruedInterest float64
	Notional        float64
}

// BondFuture is a bond futures contract with a deliverable basket.
// Each basket bond describes the cash flows after DeliveryTime and the accrued interest at delivery.
type BondFuture struct {
	Ccy               money.Currency
	LastTradingTime   float64
	DeliveryTime      float64
	Basket            []*BondFixed
	ConversionFactors []float64
	Notional          float64
	Quantity          float64
	ReferencePrice    float64
}

// Validate checks the basket and conversion factors line up.
func (f *BondFuture) Validate() error {
	if len(f.Basket) == 0 || len(f.Basket) != len(f.ConversionFactors) {
		return fmt.Errorf("BondFuture: %w: %d bonds, %d conversion factors", ErrInvalidInstrument, len(f.Basket), len(f.ConversionFactors))
	}
	for i, cf := range f.ConversionFactors {
		if cf <= 0 {
			return fmt.Errorf("BondFuture: %w: conversion factor %d is %v", ErrInvalidInstrument, i, cf)
		}
	}
	return nil
}

// InflationZeroCouponMonthly pays Notional (I(T)/IndexStartValue - 1), or the full ratio with PayNotional.
type InflationZeroCouponMonthly struct {
	Ccy              money.Currency
	PaymentTime      float64
	Notional         float64
	PriceIndex       PriceIndex
	IndexStartValue  float64
	ReferenceEndTime float64
	PayNotional      bool
}

// InflationZeroCouponInterpolation references an index interpolated between two monthly fixings:
// Weight I(ReferenceEndTimes[0]) + (1 - Weight) I(ReferenceEndTimes[1]).
type InflationZeroCouponInterpolation struct {
	Ccy               money.Currency
	PaymentTime       float64
	Notional          float64
	PriceIndex        PriceIndex
	IndexStartValue   float64
	ReferenceEndTimes [2]float64
	Weight            float64
	PayNotional       bool
}

func (d *Deposit) Kind() Kind                                        { return KindDeposit }
func (p *PaymentFixed) Kind() Kind                                   { return KindPaymentFixed }
func (c *CouponFixed) Kind() Kind                                    { return KindCouponFixed }
func (c *CouponIbor) Kind() Kind                                     { return KindCouponIbor }
func (c *CouponOIS) Kind() Kind                                      { return KindCouponOIS }
func (a *Annuity) Kind() Kind                                        { return KindAnnuity }
func (s *Swap) Kind() Kind                                           { return KindSwap }
func (f *InterestRateFuture) Kind() Kind                             { return KindInterestRateFuture }
func (b *BondFixed) Kind() Kind                                      { return KindBondFixed }
func (f *BondFuture) Kind() Kind                                     { return KindBondFuture }
func (c *InflationZeroCouponMonthly) Kind() Kind                     { return KindInflationZeroCouponMonthly }
func (c *InflationZeroCouponInterpolation) Kind() Kind               { return KindInflationZeroCouponInterpolation }
func (d *Deposit) Currency() money.Currency                          { return d.Ccy }
func (p *PaymentFixed) Currency() money.Currency                     { return p.Ccy }
func (c *CouponFixed) Currency() money.Currency                      { return c.Ccy }
func (c *CouponIbor) Currency() money.Currency                       { return c.Ccy }
func (c *CouponOIS) Currency() money.Currency                        { return c.Ccy }
func (f *InterestRateFuture) Currency() money.Currency               { return f.Ccy }
func (b *BondFixed) Currency() money.Currency                        { return b.Ccy }
func (f *BondFuture) Currency() money.Currency                       { return f.Ccy }
func (c *InflationZeroCouponMonthly) Currency() money.Currency       { return c.Ccy }
func (c *InflationZeroCouponInterpolation) Currency() money.Currency { return c.Ccy }

func (a *Annuity) Currency() money.Currency {
	if len(a.Payments) == 0 {
		return ""
	}
	return a.Payments[0].Currency()
}

func (s *Swap) Currency() money.Currency {
	if s.First == nil {
		return ""
	}
	return s.First.Currency()
}

func (*Deposit) sealed()                          {}
func (*PaymentFixed) sealed()                     {}
func (*CouponFixed) sealed()                      {}
func (*CouponIbor) sealed()                       {}
func (*CouponOIS) sealed()                        {}
func (*Annuity) sealed()                          {}
func (*Swap) sealed()                             {}
func (*InterestRateFuture) sealed()               {}
func (*BondFixed) sealed()                        {}
func (*BondFuture) sealed()                       {}
func (*InflationZeroCouponMonthly) sealed()       {}
func (*InflationZeroCouponInterpolation) sealed() {}

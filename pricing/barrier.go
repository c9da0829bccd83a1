package pricing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/dual"

	"github.com/meenmo/mocurve/instrument"
	"github.com/meenmo/mocurve/market"
	"github.com/meenmo/mocurve/money"
	"github.com/meenmo/mocurve/sensitivity"
)

// ForexOptionSingleBarrierBlack prices single-barrier options with the
// Reiner-Rubinstein formulae (no rebate, continuous monitoring). Rates are
// implied from the payment-date discount factors; derivatives with respect to
// the discount factors and the volatility are carried by dual numbers.
type ForexOptionSingleBarrierBlack struct{}

type barrierRecord struct {
	inputs fxOptionInputs
	scale  float64
	// price carries d/d dfDomestic, dfForeign and vol in that order.
	price      float64
	derivative [3]float64
}

func (ForexOptionSingleBarrierBlack) forward(o *instrument.ForexOptionSingleBarrier, m *market.Bundle) (barrierRecord, error) {
	if err := o.Validate(); err != nil {
		return barrierRecord{}, fmt.Errorf("ForexOptionSingleBarrierBlack: %w", err)
	}
	vanilla := o.Underlying
	in, err := fxInputs("ForexOptionSingleBarrierBlack", vanilla.Underlying, m)
	if err != nil {
		return barrierRecord{}, err
	}
	if in.vol <= 0 {
		return barrierRecord{}, fmt.Errorf("ForexOptionSingleBarrierBlack: %w: %v", ErrInvalidVolatility, in.vol)
	}
	if vanilla.ExpiryTime > 0 && vanilla.Underlying.PaymentTime <= 0 {
		return barrierRecord{}, fmt.Errorf("ForexOptionSingleBarrierBlack: %w: payment time %v", instrument.ErrInvalidInstrument, vanilla.Underlying.PaymentTime)
	}
	b := barrierFormula{
		spot:        in.spot,
		strike:      vanilla.Underlying.Strike(),
		level:       o.Level,
		expiry:      vanilla.ExpiryTime,
		paymentTime: vanilla.Underlying.PaymentTime,
		isCall:      vanilla.IsCall,
		barrier:     o.Barrier,
	}
	r := barrierRecord{inputs: in, scale: longShort(vanilla.IsLong) * vanilla.Notional()}
	for i := 0; i < 3; i++ {
		seed := [3]float64{}
		seed[i] = 1
		v := b.price(
			dual.Number{Real: in.dfDomestic, Emag: seed[0]},
			dual.Number{Real: in.dfForeign, Emag: seed[1]},
			dual.Number{Real: in.vol, Emag: seed[2]},
		)
		r.price = v.Real
		r.derivative[i] = v.Emag
	}
	return r, nil
}

func (p ForexOptionSingleBarrierBlack) PresentValue(o *instrument.ForexOptionSingleBarrier, m *market.Bundle) (money.MultipleCurrencyAmount, error) {
	r, err := p.forward(o, m)
	if err != nil {
		return money.MultipleCurrencyAmount{}, err
	}
	return money.Of(o.Currency(), r.scale*r.price), nil
}

func (p ForexOptionSingleBarrierBlack) CurveSensitivity(o *instrument.ForexOptionSingleBarrier, m *market.Bundle) (sensitivity.MultipleCurrencyCurveSensitivity, error) {
	r, err := p.forward(o, m)
	if err != nil {
		return noSensitivity{}, err
	}
	t := o.Underlying.Underlying.PaymentTime
	in := r.inputs
	s := sensitivity.Of(in.domesticCurve, discountingPoint(t, in.dfDomestic, r.scale*r.derivative[0])).
		Plus(sensitivity.Of(in.foreignCurve, discountingPoint(t, in.dfForeign, r.scale*r.derivative[1])))
	return sensitivity.OfCurrency(o.Currency(), s), nil
}

func (p ForexOptionSingleBarrierBlack) Vega(o *instrument.ForexOptionSingleBarrier, m *market.Bundle) (money.Amount, error) {
	r, err := p.forward(o, m)
	if err != nil {
		return money.Amount{}, err
	}
	return money.Amount{Currency: o.Currency(), Value: r.scale * r.derivative[2]}, nil
}

// ---------------------------------------------------------------------------
// Reiner-Rubinstein
// ---------------------------------------------------------------------------

type barrierFormula struct {
	spot        float64
	strike      float64
	level       float64
	expiry      float64
	paymentTime float64
	isCall      bool
	barrier     instrument.BarrierType
}

var dualOne = dual.Number{Real: 1}

func normalCDF(x dual.Number) dual.Number {
	return dual.Number{Real: standardNormal.CDF(x.Real), Emag: standardNormal.Prob(x.Real) * x.Emag}
}

// price returns the value per unit of foreign notional, in domestic currency, discounted to today.
func (b barrierFormula) price(dfDomestic, dfForeign, vol dual.Number) dual.Number {
	phi := 1.0
	if !b.isCall {
		phi = -1
	}
	eta := 1.0
	if !b.barrier.IsDown() {
		eta = -1
	}
	knocked := (b.barrier.IsDown() && b.spot <= b.level) || (!b.barrier.IsDown() && b.spot >= b.level)

	if b.expiry <= 0 {
		payoff := math.Max(phi*(b.spot-b.strike), 0)
		if knocked != b.barrier.IsIn() {
			payoff = 0
		}
		return dual.Scale(payoff, dfDomestic)
	}

	// Discounting to expiry implied from the payment-date discount factors.
	rd := dual.Scale(-1/b.paymentTime, dual.Log(dfDomestic))
	rf := dual.Scale(-1/b.paymentTime, dual.Log(dfForeign))
	discDomestic := dual.Exp(dual.Scale(-b.expiry, rd))
	discForeign := dual.Exp(dual.Scale(-b.expiry, rf))

	sigmaRootT := dual.Scale(math.Sqrt(b.expiry), vol)
	if knocked {
		if !b.barrier.IsIn() {
			return dual.Number{}
		}
		return b.vanilla(phi, discDomestic, discForeign, sigmaRootT)
	}

	carry := dual.Sub(rd, rf)
	sigma2 := dual.Mul(vol, vol)
	mu := dual.Mul(dual.Sub(carry, dual.Scale(0.5, sigma2)), dual.Inv(sigma2))
	shift := dual.Mul(dual.Add(dualOne, mu), sigmaRootT)
	invSigmaRootT := dual.Inv(sigmaRootT)
	arg := func(logRatio float64) dual.Number {
		return dual.Add(dual.Scale(logRatio, invSigmaRootT), shift)
	}

	s, k, h := b.spot, b.strike, b.level
	x1 := arg(math.Log(s / k))
	x2 := arg(math.Log(s / h))
	y1 := arg(math.Log(h * h / (s * k)))
	y2 := arg(math.Log(h / s))

	spotTerm := dual.Scale(phi*s, discForeign)
	strikeTerm := dual.Scale(phi*k, discDomestic)
	lnHS := math.Log(h / s)
	powSpot := dual.Exp(dual.Scale(2*lnHS, dual.Add(mu, dualOne)))
	powStrike := dual.Exp(dual.Scale(2*lnHS, mu))

	// A, B use phi; C, D use eta.
	plain := func(x dual.Number) dual.Number {
		return dual.Sub(
			dual.Mul(spotTerm, normalCDF(dual.Scale(phi, x))),
			dual.Mul(strikeTerm, normalCDF(dual.Scale(phi, dual.Sub(x, sigmaRootT)))),
		)
	}
	reflected := func(y dual.Number) dual.Number {
		return dual.Sub(
			dual.Mul(dual.Mul(spotTerm, powSpot), normalCDF(dual.Scale(eta, y))),
			dual.Mul(dual.Mul(strikeTerm, powStrike), normalCDF(dual.Scale(eta, dual.Sub(y, sigmaRootT)))),
		)
	}
	A, B := plain(x1), plain(x2)
	C, D := reflected(y1), reflected(y2)

	above := k > h
	zero := dual.Number{}
	switch {
	case b.isCall && b.barrier == instrument.DownAndIn:
		if above {
			return C
		}
		return dual.Add(dual.Sub(A, B), D)
	case b.isCall && b.barrier == instrument.UpAndIn:
		if above {
			return A
		}
		return dual.Add(dual.Sub(B, C), D)
	case !b.isCall && b.barrier == instrument.DownAndIn:
		if above {
			return dual.Add(dual.Sub(B, C), D)
		}
		return A
	case !b.isCall && b.barrier == instrument.UpAndIn:
		if above {
			return dual.Add(dual.Sub(A, B), D)
		}
		return C
	case b.isCall && b.barrier == instrument.DownAndOut:
		if above {
			return dual.Sub(A, C)
		}
		return dual.Sub(B, D)
	case b.isCall && b.barrier == instrument.UpAndOut:
		if above {
			return zero
		}
		return dual.Sub(dual.Add(dual.Sub(A, B), C), D)
	case !b.isCall && b.barrier == instrument.DownAndOut:
		if above {
			return dual.Sub(dual.Add(dual.Sub(A, B), C), D)
		}
		return zero
	default: // put, up-and-out
		if above {
			return dual.Sub(B, D)
		}
		return dual.Sub(A, C)
	}
}

// vanilla is the Garman-Kohlhagen price expressed with the same discounting.
func (b barrierFormula) vanilla(phi float64, discDomestic, discForeign, sigmaRootT dual.Number) dual.Number {
	// d1 = ln(S discForeign / (K discDomestic)) / sigmaRootT + sigmaRootT / 2
	logMoneyness := dual.Sub(dual.Log(dual.Scale(b.spot/b.strike, discForeign)), dual.Log(discDomestic))
	d1 := dual.Add(dual.Mul(logMoneyness, dual.Inv(sigmaRootT)), dual.Scale(0.5, sigmaRootT))
	d2 := dual.Sub(d1, sigmaRootT)
	return dual.Sub(
		dual.Mul(dual.Scale(phi*b.spot, discForeign), normalCDF(dual.Scale(phi, d1))),
		dual.Mul(dual.Scale(phi*b.strike, discDomestic), normalCDF(dual.Scale(phi, d2))),
	)
}

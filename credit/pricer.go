package credit

import (
	"fmt"
	"math"
	"sort"

	"github.com/meenmo/mocurve/curve"
)

// PriceType says whether a price includes the premium accrued at step-in.
type PriceType int

const (
	Clean PriceType = iota
	Dirty
)

func (p PriceType) String() string {
	switch p {
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	}
	return fmt.Sprintf("PriceType(%d)", int(p))
}

// Pricer values CDSs analytically with piecewise-constant hazard and forward
// rates between the union of the curves' nodes. Values are per unit notional,
// seen from the protection buyer, at the cash settlement time.
type Pricer struct{}

// PV is the protection leg less coupon times the risky annuity.
func (p Pricer) PV(cds *CDS, yc *curve.YieldCurve, hc *HazardCurve, coupon float64, priceType PriceType) (float64, error) {
	if err := checkInputs(cds, yc, hc); err != nil {
		return 0, fmt.Errorf("PV: %w", err)
	}
	annuity, err := p.annuity(cds, yc, hc, priceType)
	if err != nil {
		return 0, fmt.Errorf("PV: %w", err)
	}
	return p.protectionLeg(cds, yc, hc) - coupon*annuity, nil
}

// ParSpread is the coupon that makes the clean price zero.
func (p Pricer) ParSpread(cds *CDS, yc *curve.YieldCurve, hc *HazardCurve) (float64, error) {
	if err := checkInputs(cds, yc, hc); err != nil {
		return 0, fmt.Errorf("ParSpread: %w", err)
	}
	annuity, err := p.annuity(cds, yc, hc, Clean)
	if err != nil {
		return 0, fmt.Errorf("ParSpread: %w", err)
	}
	if annuity <= 0 {
		return 0, fmt.Errorf("ParSpread: %w: annuity %g", ErrInvalidCDS, annuity)
	}
	return p.protectionLeg(cds, yc, hc) / annuity, nil
}

// ProtectionLeg is the value of the default payment (1 - R).
func (p Pricer) ProtectionLeg(cds *CDS, yc *curve.YieldCurve, hc *HazardCurve) (float64, error) {
	if err := checkInputs(cds, yc, hc); err != nil {
		return 0, fmt.Errorf("ProtectionLeg: %w", err)
	}
	return p.protectionLeg(cds, yc, hc), nil
}

// Annuity is the risky PV01 of the premium leg, including accrual on default when the CDS pays it.
func (p Pricer) Annuity(cds *CDS, yc *curve.YieldCurve, hc *HazardCurve, priceType PriceType) (float64, error) {
	if err := checkInputs(cds, yc, hc); err != nil {
		return 0, fmt.Errorf("Annuity: %w", err)
	}
	return p.annuity(cds, yc, hc, priceType)
}

func checkInputs(cds *CDS, yc *curve.YieldCurve, hc *HazardCurve) error {
	if err := cds.validate(); err != nil {
		return err
	}
	if yc == nil || hc == nil {
		return fmt.Errorf("%w: missing yield or hazard curve", ErrInvalidCDS)
	}
	return nil
}

func (Pricer) protectionLeg(cds *CDS, yc *curve.YieldCurve, hc *HazardCurve) float64 {
	ts := knots(cds.ProtectionStart, cds.ProtectionEnd, yc.Times(), hc.times)
	ht0 := hc.RT(ts[0])
	rt0 := yc.ZeroRate(ts[0]) * ts[0]
	b0 := math.Exp(-ht0 - rt0)
	pv := 0.0
	for _, t := range ts[1:] {
		ht1 := hc.RT(t)
		rt1 := yc.ZeroRate(t) * t
		dht := ht1 - ht0
		drt := rt1 - rt0
		// On each sub-interval: h / (h + r) (P(t0) - P(t1)).
		pv += dht * b0 * epsilon(dht+drt)
		ht0, rt0 = ht1, rt1
		b0 = math.Exp(-ht0 - rt0)
	}
	return cds.LGD() * pv / yc.DiscountFactor(cds.ValuationTime)
}

func (p Pricer) annuity(cds *CDS, yc *curve.YieldCurve, hc *HazardCurve, priceType PriceType) (float64, error) {
	pv := 0.0
	for _, c := range cds.Coupons {
		pv += c.YearFraction * hc.Survival(c.AccrualEnd) * yc.DiscountFactor(c.PaymentTime)
		if cds.PayAccruedOnDefault {
			pv += accruedOnDefault(cds, c, yc, hc)
		}
	}
	pv /= yc.DiscountFactor(cds.ValuationTime)
	switch priceType {
	case Dirty:
		return pv, nil
	case Clean:
		return pv - cds.AccruedYearFraction, nil
	}
	return 0, fmt.Errorf("%w: price type %s", ErrInvalidCDS, priceType)
}

// accruedOnDefault values the premium accrued from the period start to the default time.
func accruedOnDefault(cds *CDS, c CouponPeriod, yc *curve.YieldCurve, hc *HazardCurve) float64 {
	start := math.Max(c.AccrualStart, cds.ProtectionStart)
	if c.AccrualEnd <= start || c.AccrualEnd <= c.AccrualStart {
		return 0
	}
	rate := c.YearFraction / (c.AccrualEnd - c.AccrualStart)
	ts := knots(start, c.AccrualEnd, yc.Times(), hc.times)
	ht0 := hc.RT(ts[0])
	rt0 := yc.ZeroRate(ts[0]) * ts[0]
	b0 := math.Exp(-ht0 - rt0)
	pv := 0.0
	t0 := ts[0]
	for _, t1 := range ts[1:] {
		ht1 := hc.RT(t1)
		rt1 := yc.ZeroRate(t1) * t1
		dht := ht1 - ht0
		x := dht + rt1 - rt0
		pv += dht * b0 * ((t0-c.AccrualStart)*epsilon(x) + (t1-t0)*epsilonP(x))
		t0, ht0, rt0 = t1, ht1, rt1
		b0 = math.Exp(-ht0 - rt0)
	}
	return rate * pv
}

const taylorThreshold = 1e-3

// epsilon is (1 - exp(-x)) / x.
func epsilon(x float64) float64 {
	if math.Abs(x) < taylorThreshold {
		return 1 - x/2*(1-x/3*(1-x/4))
	}
	return -math.Expm1(-x) / x
}

// epsilonP is (1 - exp(-x) (1 + x)) / x^2.
func epsilonP(x float64) float64 {
	if math.Abs(x) < taylorThreshold {
		return 0.5 - x/3 + x*x/8 - x*x*x/30
	}
	return (1 - math.Exp(-x)*(1+x)) / (x * x)
}

// knots returns start, every node strictly inside (start, end), and end.
func knots(start, end float64, nodes ...[]float64) []float64 {
	out := []float64{start}
	var inner []float64
	for _, ns := range nodes {
		for _, t := range ns {
			if t > start && t < end {
				inner = append(inner, t)
			}
		}
	}
	sort.Float64s(inner)
	for _, t := range inner {
		if t > out[len(out)-1] {
			out = append(out, t)
		}
	}
	return append(out, end)
}

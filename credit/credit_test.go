package credit

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/mocurve/calendar"
	"github.com/meenmo/mocurve/config"
	"github.com/meenmo/mocurve/curve"
	"github.com/meenmo/mocurve/interp"
	"github.com/meenmo/mocurve/utils"
)

var (
	pillarMaturities = []float64{0.5, 1, 3, 5, 7, 10}
	pillarSpreads    = []float64{0.008, 0.0095, 0.011, 0.0125, 0.0135, 0.014}
)

func yieldCurve(t *testing.T) *curve.YieldCurve {
	t.Helper()
	yc, err := curve.NewYieldCurve("USD discounting", []float64{0.5, 1, 2, 5, 10}, []float64{0.03, 0.031, 0.032, 0.034, 0.036}, interp.Linear{})
	require.NoError(t, err)
	return yc
}

func simpleCDS(t *testing.T, maturity float64) *CDS {
	t.Helper()
	cds, err := NewSimpleCDS(maturity, 0.4, 0.25, true)
	require.NoError(t, err)
	return cds
}

func pillars(t *testing.T) []*CDS {
	t.Helper()
	out := make([]*CDS, len(pillarMaturities))
	for i, m := range pillarMaturities {
		out[i] = simpleCDS(t, m)
	}
	return out
}

func TestHazardCurve(t *testing.T) {
	t.Parallel()

	flat := FlatHazardCurve(0.02)
	assert.InDelta(t, math.Exp(-0.02*7), flat.Survival(7), 1e-15)
	assert.InDelta(t, 0.02, flat.ZeroHazard(0), 1e-15)

	hc, err := NewHazardCurve([]float64{1, 3}, []float64{0.01, 0.02})
	require.NoError(t, err)
	assert.InDelta(t, 0.005, hc.RT(0.5), 1e-15)
	assert.InDelta(t, 0.01+0.025, hc.RT(2), 1e-15, "forward hazard 0.025 between the nodes")
	assert.InDelta(t, 0.06+0.025, hc.RT(4), 1e-15, "last forward hazard extrapolated")
	assert.InDeltaSlice(t, []float64{0.01, 0.02}, hc.Rates(), 1e-15)

	_, err = NewHazardCurve([]float64{1, 1}, []float64{0.01, 0.02})
	assert.ErrorIs(t, err, ErrUnsortedPillars)
	_, err = NewHazardCurve([]float64{1}, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestEpsilonBranchesAgree(t *testing.T) {
	t.Parallel()

	for _, x := range []float64{taylorThreshold * (1 - 1e-9), -taylorThreshold * (1 - 1e-9)} {
		assert.InDelta(t, -math.Expm1(-x)/x, epsilon(x), 1e-12)
		assert.InDelta(t, (1-math.Exp(-x)*(1+x))/(x*x), epsilonP(x), 1e-9)
	}
	assert.Equal(t, 1.0, epsilon(0))
	assert.Equal(t, 0.5, epsilonP(0))
}

func TestProtectionLegClosedForm(t *testing.T) {
	t.Parallel()

	const lambda, r, maturity = 0.02, 0.03, 5.0
	yc := curve.Flat("flat", r)
	hc := FlatHazardCurve(lambda)
	cds := simpleCDS(t, maturity)

	got, err := Pricer{}.ProtectionLeg(cds, yc, hc)
	require.NoError(t, err)
	want := 0.6 * lambda / (lambda + r) * (1 - math.Exp(-(lambda+r)*maturity))
	assert.InDelta(t, want, got, 1e-14)
}

func TestAnnuityWithoutAccruedOnDefault(t *testing.T) {
	t.Parallel()

	yc := yieldCurve(t)
	hc := FlatHazardCurve(0.015)
	cds, err := NewSimpleCDS(2, 0.4, 0.25, false)
	require.NoError(t, err)
	cds.ProtectionStart = 0.1
	cds.AccruedYearFraction = 0.1 * 365 / 360

	want := 0.0
	for _, c := range cds.Coupons {
		want += c.YearFraction * hc.Survival(c.AccrualEnd) * yc.DiscountFactor(c.PaymentTime)
	}
	dirty, err := Pricer{}.Annuity(cds, yc, hc, Dirty)
	require.NoError(t, err)
	clean, err := Pricer{}.Annuity(cds, yc, hc, Clean)
	require.NoError(t, err)
	assert.InDelta(t, want, dirty, 1e-14)
	assert.InDelta(t, cds.AccruedYearFraction, dirty-clean, 1e-14)

	withAccrued := *cds
	withAccrued.PayAccruedOnDefault = true
	aod, err := Pricer{}.Annuity(&withAccrued, yc, hc, Dirty)
	require.NoError(t, err)
	assert.Greater(t, aod, dirty)
	// Roughly half a period of premium is accrued on default.
	assert.InDelta(t, 0.5*0.25*(1-hc.Survival(2)), aod-dirty, 5e-4)
}

func TestCreditTriangle(t *testing.T) {
	t.Parallel()

	const lambda = 0.02
	spread, err := Pricer{}.ParSpread(simpleCDS(t, 5), yieldCurve(t), FlatHazardCurve(lambda))
	require.NoError(t, err)
	assert.InEpsilon(t, lambda*0.6*360/365, spread, 1e-2)
}

func TestCalibrateParSpreads(t *testing.T) {
	t.Parallel()

	yc := yieldCurve(t)
	b := NewCurveBuilder(config.Default.Credit)
	hc, err := b.CalibrateParSpreads(pillars(t), pillarSpreads, yc)
	require.NoError(t, err)
	assert.Equal(t, pillarMaturities, hc.Times())

	for i, cds := range pillars(t) {
		s, err := Pricer{}.ParSpread(cds, yc, hc)
		require.NoError(t, err)
		assert.InDelta(t, pillarSpreads[i], s, 1e-10, "pillar %d", i)
	}
}

func TestCalibrateMixedQuotes(t *testing.T) {
	t.Parallel()

	yc := yieldCurve(t)
	b := NewCurveBuilder(config.Default.Credit)
	ps := pillars(t)
	quotes := []Quote{
		ParSpread{Spread: 0.008},
		QuotedSpread{Premium: 0.01, Spread: 0.0095},
		PointsUpFront{Premium: 0.01, Value: 0.004},
		QuotedSpread{Premium: 0.01, Spread: 0.0125},
		PointsUpFront{Premium: 0.01, Value: 0.02},
		ParSpread{Spread: 0.014},
	}
	hc, err := b.Calibrate(ps, quotes, yc)
	require.NoError(t, err)

	conv := NewPUFConverter(b)
	for i, q := range quotes {
		puf, err := conv.ToPUF(ps[i], q, yc)
		require.NoError(t, err)
		pv, err := Pricer{}.PV(ps[i], yc, hc, puf.Premium, Clean)
		require.NoError(t, err)
		assert.InDelta(t, puf.Value, pv, 1e-10, "pillar %d", i)
	}

	_, err = b.Calibrate(ps[:2], []Quote{ParSpread{Spread: 0.01}, nil}, yc)
	assert.ErrorIs(t, err, ErrUnknownQuote)
	_, err = b.Calibrate(ps[:2], quotes, yc)
	assert.ErrorIs(t, err, ErrLengthMismatch)
	_, err = b.CalibrateParSpreads([]*CDS{ps[1], ps[0]}, []float64{0.01, 0.01}, yc)
	assert.ErrorIs(t, err, ErrUnsortedPillars)
	_, err = b.CalibrateParSpreads(ps[:1], []float64{-0.01}, yc)
	assert.ErrorIs(t, err, ErrInvalidSpread)
}

func TestPUFRoundTrip(t *testing.T) {
	t.Parallel()

	yc := yieldCurve(t)
	conv := NewPUFConverter(NewCurveBuilder(config.Default.Credit))
	cds := simpleCDS(t, 5)

	for _, spread := range []float64{0.003, 0.01, 0.025, 0.08} {
		puf, err := conv.QuotedSpreadToPUF(cds, 0.01, yc, spread)
		require.NoError(t, err)
		back, err := conv.PUFToQuotedSpread(cds, 0.01, yc, puf)
		require.NoError(t, err)
		assert.InDelta(t, spread, back, 1e-10)
		if spread == 0.01 {
			assert.InDelta(t, 0, puf, 1e-12, "no upfront when the spread equals the coupon")
			continue
		}
		assert.Equal(t, spread > 0.01, puf > 0, "buyer pays upfront when the spread exceeds the coupon")
	}

	pufs := []float64{-0.02, 0.0, 0.03}
	cdss := []*CDS{cds, cds, cds}
	coupons := []float64{0.01, 0.01, 0.05}
	spreads, err := conv.PUFsToQuotedSpreads(cdss, coupons, yc, pufs)
	require.NoError(t, err)
	back, err := conv.QuotedSpreadsToPUF(cdss, coupons, yc, spreads)
	require.NoError(t, err)
	assert.InDeltaSlice(t, pufs, back, 1e-10)

	qs, err := conv.ToQuotedSpread(cds, PointsUpFront{Premium: 0.05, Value: 0.03}, yc)
	require.NoError(t, err)
	assert.InDelta(t, spreads[2], qs.Spread, 1e-12)
	assert.Equal(t, 0.05, qs.Premium)
}

func TestNewCDSFromDates(t *testing.T) {
	t.Parallel()

	trade := time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC)
	maturity := StandardMaturity(trade, 60)
	assert.Equal(t, time.Date(2029, 6, 20, 0, 0, 0, 0, time.UTC), maturity)

	cds, err := NewCDS(Terms{
		TradeDate:           trade,
		Maturity:            maturity,
		Calendar:            calendar.WeekendsOnly,
		Recovery:            0.4,
		PayAccruedOnDefault: true,
	})
	require.NoError(t, err)

	assert.Len(t, cds.Coupons, 21)
	assert.InDelta(t, 1.0/365, cds.ProtectionStart, 1e-15)
	assert.InDelta(t, utils.YearFraction(trade, maturity, utils.Act365F), cds.ProtectionEnd, 1e-15)
	assert.InDelta(t, 86.0/360, cds.AccruedYearFraction, 1e-15)
	assert.InDelta(t, 92.0/360, cds.Coupons[0].YearFraction, 1e-15)
	assert.InDelta(t, 93.0/360, cds.Coupons[20].YearFraction, 1e-15, "last period accrues through maturity")
	assert.Less(t, cds.Coupons[0].AccrualStart, 0.0)
	assert.InDelta(t, 5.0/365, cds.ValuationTime, 1e-15, "three business days after a Thursday")

	_, err = NewCDS(Terms{TradeDate: trade, Maturity: trade, Recovery: 0.4})
	assert.ErrorIs(t, err, ErrInvalidCDS)
	_, err = NewCDS(Terms{TradeDate: trade, Maturity: maturity, Recovery: 1})
	assert.ErrorIs(t, err, ErrInvalidCDS)
}

func TestParallelCS01SignAndScale(t *testing.T) {
	t.Parallel()

	yc := yieldCurve(t)
	calc := NewSpreadSensitivityCalculator()
	cds := simpleCDS(t, 5)

	cs01, err := calc.ParallelCS01FromParSpreads(cds, 0.01, yc, pillars(t), pillarSpreads, 1e-4, Additive)
	require.NoError(t, err)
	hc, err := NewCurveBuilder(config.Default.Credit).CalibrateParSpreads(pillars(t), pillarSpreads, yc)
	require.NoError(t, err)
	annuity, err := Pricer{}.Annuity(cds, yc, hc, Clean)
	require.NoError(t, err)

	assert.Greater(t, cs01, 0.0, "protection gains when spreads widen")
	assert.InEpsilon(t, annuity, cs01, 0.1)

	mult, err := calc.ParallelCS01FromParSpreads(cds, 0.01, yc, pillars(t), pillarSpreads, 1e-2, Multiplicative)
	require.NoError(t, err)
	assert.Greater(t, mult, 0.0)

	own, err := calc.ParallelCS01(cds, ParSpread{Spread: 0.0125}, yc, 1e-4)
	require.NoError(t, err)
	fromSpread, err := calc.ParallelCS01FromSpread(cds, 0.0125, yc, 0.0125, 1e-4, Additive)
	require.NoError(t, err)
	assert.Equal(t, fromSpread, own)

	quoted, err := calc.ParallelCS01(cds, QuotedSpread{Premium: 0.01, Spread: 0.0125}, yc, 1e-4)
	require.NoError(t, err)
	reference, err := calc.ParallelCS01FromQuotedSpread(cds, 0.01, yc, cds, 0.0125, 1e-4, Additive)
	require.NoError(t, err)
	assert.Equal(t, reference, quoted)

	conv := NewPUFConverter(NewCurveBuilder(config.Default.Credit))
	puf, err := conv.QuotedSpreadToPUF(cds, 0.01, yc, 0.0125)
	require.NoError(t, err)
	fromPUF, err := calc.ParallelCS01(cds, PointsUpFront{Premium: 0.01, Value: puf}, yc, 1e-4)
	require.NoError(t, err)
	assert.InEpsilon(t, quoted, fromPUF, 1e-5)
}

func TestBucketedSumMatchesParallel(t *testing.T) {
	t.Parallel()

	yc := yieldCurve(t)
	calc := NewSpreadSensitivityCalculator()
	cds := simpleCDS(t, 4)

	parallel, err := calc.ParallelCS01FromParSpreads(cds, 0.01, yc, pillars(t), pillarSpreads, 1e-5, Additive)
	require.NoError(t, err)
	buckets, err := calc.BucketedCS01FromParSpreads(cds, 0.01, yc, pillars(t), pillarSpreads, 1e-5, Additive)
	require.NoError(t, err)
	require.Len(t, buckets, len(pillarMaturities))

	sum := 0.0
	for _, b := range buckets {
		sum += b
	}
	assert.InEpsilon(t, parallel, sum, 1e-3)
	assert.InDelta(t, 0, buckets[5], 1e-6, "the 10y pillar cannot move a 4y CDS")
	assert.InDelta(t, 0, buckets[4], 1e-6, "nor the 7y pillar")

	quotes := make([]Quote, len(pillarSpreads))
	for i, s := range pillarSpreads {
		quotes[i] = ParSpread{Spread: s}
	}
	fromQuotes, err := calc.BucketedCS01FromPillarQuotes(cds, 0.01, yc, pillars(t), quotes, 1e-5)
	require.NoError(t, err)
	assert.InDeltaSlice(t, buckets, fromQuotes, 1e-6)

	parallelQuotes, err := calc.ParallelCS01FromPillarQuotes(cds, 0.01, yc, pillars(t), quotes, 1e-5)
	require.NoError(t, err)
	assert.InEpsilon(t, parallel, parallelQuotes, 1e-6)
}

func TestBucketedQuotedSpreadsBatch(t *testing.T) {
	t.Parallel()

	yc := yieldCurve(t)
	calc := NewSpreadSensitivityCalculator()
	targets := []*CDS{simpleCDS(t, 2), simpleCDS(t, 5), simpleCDS(t, 10)}

	batch, err := calc.BucketedCS01FromQuotedSpreadsBatch(targets, 0.01, yc, pillars(t), pillarSpreads, 1e-4, Additive)
	require.NoError(t, err)
	require.Len(t, batch, len(targets))

	for j, cds := range targets {
		single, err := calc.BucketedCS01FromQuotedSpreads(cds, 0.01, yc, pillars(t), pillarSpreads, 1e-4, Additive)
		require.NoError(t, err)
		assert.InDeltaSlice(t, single, batch[j], 1e-12)
	}
	assert.InDelta(t, 0, batch[0][5], 1e-6)
	assert.Greater(t, batch[2][5], 0.0)
}

func TestFiniteDifferenceSpreadSensitivity(t *testing.T) {
	t.Parallel()

	yc := yieldCurve(t)
	calc := NewSpreadSensitivityCalculator()
	cds := simpleCDS(t, 5)
	deltas := func(d float64) []float64 {
		out := make([]float64, len(pillarSpreads))
		for i := range out {
			out[i] = d
		}
		return out
	}
	fd := func(d float64, fdType FiniteDifferenceType) float64 {
		v, err := calc.FiniteDifferenceSpreadSensitivity(cds, 0.01, Clean, yc, pillars(t), pillarSpreads, deltas(d), fdType)
		require.NoError(t, err)
		return v
	}

	const delta = 1e-3
	central, centralHalf := fd(delta, Central), fd(delta/2, Central)
	forward, forwardHalf := fd(delta, Forward), fd(delta/2, Forward)
	backward := fd(delta, Backward)

	assert.InEpsilon(t, central, centralHalf, 1e-4, "central differences are second order")
	assert.InDelta(t, central, (forward+backward)/2, 1e-10)
	ratio := (forward - central) / (forwardHalf - centralHalf)
	assert.InDelta(t, 2, ratio, 0.3, "forward error is first order in the bump")

	parallel, err := calc.ParallelCS01FromParSpreads(cds, 0.01, yc, pillars(t), pillarSpreads, delta, Additive)
	require.NoError(t, err)
	assert.InDelta(t, forward, parallel, 1e-9, "a dirty/clean switch only shifts both prices")
}

func TestSpreadSensitivityErrors(t *testing.T) {
	t.Parallel()

	yc := yieldCurve(t)
	calc := NewSpreadSensitivityCalculator()
	cds := simpleCDS(t, 5)
	ps := pillars(t)

	_, err := calc.ParallelCS01FromParSpreads(cds, 0.01, yc, ps, pillarSpreads[:2], 1e-4, Additive)
	assert.ErrorIs(t, err, ErrLengthMismatch)
	_, err = calc.BucketedCS01FromParSpreads(cds, 0.01, yc, ps, pillarSpreads, 1e-11, Additive)
	assert.ErrorIs(t, err, ErrBumpTooSmall)
	_, err = calc.BucketedCS01FromParSpreads(cds, 0.01, yc, ps, pillarSpreads, 1e-4, BumpType(7))
	assert.ErrorIs(t, err, ErrUnknownBumpType)
	_, err = calc.ParallelCS01(cds, nil, yc, 1e-4)
	assert.ErrorIs(t, err, ErrUnknownQuote)
	_, err = calc.ParallelCS01FromPillarQuotes(cds, 0.01, yc, ps, []Quote{ParSpread{Spread: 0.01}}, 1e-4)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	big := []float64{0.01, 0.01, 0.01, 0.02, 0.02, 0.02}
	_, err = calc.FiniteDifferenceSpreadSensitivity(cds, 0.01, Clean, yc, ps, pillarSpreads, big, Backward)
	assert.ErrorIs(t, err, ErrInvalidSpread)
	_, err = calc.FiniteDifferenceSpreadSensitivity(cds, 0.01, Clean, yc, ps, pillarSpreads, big, Forward)
	assert.NoError(t, err, "forward differences may bump past the spread")
	_, err = calc.FiniteDifferenceSpreadSensitivity(cds, 0.01, Clean, yc, ps, pillarSpreads, make([]float64, len(ps)), Central)
	assert.ErrorIs(t, err, ErrBumpTooSmall)
	_, err = calc.FiniteDifferenceSpreadSensitivity(cds, 0.01, Clean, yc, ps, pillarSpreads, big, FiniteDifferenceType(9))
	assert.ErrorIs(t, err, ErrUnknownFiniteDifference)
}

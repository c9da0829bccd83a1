package calibration

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/mocurve/curve"
	"github.com/meenmo/mocurve/instrument"
	"github.com/meenmo/mocurve/interp"
	"github.com/meenmo/mocurve/market"
	"github.com/meenmo/mocurve/money"
	"github.com/meenmo/mocurve/pricing"
	"github.com/meenmo/mocurve/rootfind"
)

var euribor6M = instrument.IborIndex{Name: "EURIBOR6M", Currency: money.EUR}

func deposits(ccy money.Currency, ends, rates []float64) []instrument.Instrument {
	out := make([]instrument.Instrument, len(ends))
	for i := range ends {
		out[i] = &instrument.Deposit{
			Ccy:           ccy,
			EndTime:       ends[i],
			AccrualFactor: ends[i],
			Rate:          rates[i],
			Notional:      1,
		}
	}
	return out
}

func fra(t *testing.T, start, end, rate float64) instrument.Instrument {
	t.Helper()
	accrual := end - start
	floating, err := instrument.NewAnnuity(&instrument.CouponIbor{
		Ccy:                   money.EUR,
		PaymentTime:           end,
		AccrualFactor:         accrual,
		Notional:              1,
		Index:                 euribor6M,
		FixingTime:            start,
		FixingPeriodStartTime: start,
		FixingPeriodEndTime:   end,
		FixingAccrualFactor:   accrual,
	})
	require.NoError(t, err)
	fixed, err := instrument.NewAnnuity(&instrument.CouponFixed{
		Ccy:           money.EUR,
		PaymentTime:   end,
		AccrualFactor: accrual,
		Notional:      -1,
		Rate:          rate,
	})
	require.NoError(t, err)
	return &instrument.Swap{First: floating, Second: fixed}
}

func tightBuilder(opts ...Option) *Builder {
	return NewBuilder(append([]Option{WithRootFinder(rootfind.NewBroyden(1e-12, 1e-15, 100))}, opts...)...)
}

func presentValues(t *testing.T, instruments []instrument.Instrument, m *market.Bundle) []float64 {
	t.Helper()
	calc := pricing.NewPresentValueCalculator(pricing.DefaultMethods())
	out := make([]float64, len(instruments))
	for i, inst := range instruments {
		pv, err := calc.PresentValue(inst, m)
		require.NoError(t, err)
		out[i], err = m.Convert(pv, inst.Currency())
		require.NoError(t, err)
	}
	return out
}

func TestDiscountingThreeDeposits(t *testing.T) {
	t.Parallel()

	ends := []float64{0.25, 1, 5}
	rates := []float64{0.01, 0.015, 0.02}
	insts := deposits(money.EUR, ends, rates)

	m, err := tightBuilder().Discounting(insts, nil, money.EUR, []string{"EONIA"}, interp.Linear{})
	require.NoError(t, err)

	for _, pv := range presentValues(t, insts, m) {
		assert.InDelta(t, 0, pv, 1e-11)
	}

	dc, err := m.DiscountCurve(money.EUR)
	require.NoError(t, err)
	assert.Equal(t, "EUR discounting", dc.Name())
	assert.Equal(t, ends, dc.Times())
	for i, end := range ends {
		assert.InDelta(t, math.Log(1+rates[i]*end)/end, dc.Values()[i], 1e-10)
	}

	fc, err := m.ForwardCurve("EONIA")
	require.NoError(t, err)
	assert.Same(t, dc, fc)
}

func TestDiscountingBumpIsLocal(t *testing.T) {
	t.Parallel()

	ends := []float64{0.25, 1, 5}
	b := tightBuilder()

	base, err := b.Discounting(deposits(money.EUR, ends, []float64{0.01, 0.015, 0.02}), nil, money.EUR, nil, interp.Linear{})
	require.NoError(t, err)
	bumped, err := b.Discounting(deposits(money.EUR, ends, []float64{0.01, 0.0151, 0.02}), nil, money.EUR, nil, interp.Linear{})
	require.NoError(t, err)

	bc, err := base.DiscountCurve(money.EUR)
	require.NoError(t, err)
	uc, err := bumped.DiscountCurve(money.EUR)
	require.NoError(t, err)

	// Each deposit pins its own node under linear interpolation.
	assert.InDelta(t, bc.Values()[0], uc.Values()[0], 1e-10)
	assert.Greater(t, uc.Values()[1], bc.Values()[1])
	assert.InDelta(t, bc.Values()[2], uc.Values()[2], 1e-10)
}

func TestDiscountingForwardJoint(t *testing.T) {
	t.Parallel()

	step := Step{
		Instruments: [][]instrument.Instrument{
			deposits(money.EUR, []float64{0.5, 1, 2}, []float64{0.01, 0.012, 0.015}),
			{fra(t, 0, 0.5, 0.02), fra(t, 0.5, 1, 0.022), fra(t, 1.5, 2, 0.025)},
		},
		CurveNames:      []string{"EUR discounting", "EUR EURIBOR6M"},
		DiscountingRefs: map[money.Currency]int{money.EUR: 0},
		ForwardRefs:     map[string]int{euribor6M.Name: 1},
		Interpolator:    interp.Linear{},
	}

	for _, analytic := range []bool{true, false} {
		opts := []Option{}
		if !analytic {
			opts = append(opts, WithFiniteDifferenceJacobian())
		}
		m, err := tightBuilder(opts...).DiscountingForward(nil, step)
		require.NoError(t, err)

		for _, group := range step.Instruments {
			for _, pv := range presentValues(t, group, m) {
				assert.InDelta(t, 0, pv, 1e-10)
			}
		}
		fc, err := m.ForwardCurve(euribor6M.Name)
		require.NoError(t, err)
		assert.InDelta(t, 0.02, fc.ForwardRate(0, 0.5, 0.5), 1e-9)
		assert.InDelta(t, 0.022, fc.ForwardRate(0.5, 1, 0.5), 1e-9)
		assert.InDelta(t, 0.025, fc.ForwardRate(1.5, 2, 0.5), 1e-9)
	}
}

func TestFinderJacobianMatchesFiniteDifference(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	data, err := b.dataBundle(nil, Step{
		Instruments: [][]instrument.Instrument{
			deposits(money.EUR, []float64{0.5, 1, 2}, []float64{0.01, 0.012, 0.015}),
			{fra(t, 0, 0.5, 0.02), fra(t, 0.5, 1, 0.022), fra(t, 1.5, 2, 0.025)},
		},
		CurveNames:      []string{"EUR discounting", "EUR EURIBOR6M"},
		DiscountingRefs: map[money.Currency]int{money.EUR: 0},
		ForwardRefs:     map[string]int{euribor6M.Name: 1},
		Interpolator:    interp.LogLinear{},
	})
	require.NoError(t, err)

	methods := pricing.DefaultMethods()
	f, err := NewFinderFunction(data, pricing.NewPresentValueCalculator(methods))
	require.NoError(t, err)
	j, err := NewFinderJacobian(data, pricing.NewCurveSensitivityCalculator(methods))
	require.NoError(t, err)

	x := []float64{0.011, 0.012, 0.014, 0.02, 0.021, 0.023}
	analytic, err := j.Evaluate(x)
	require.NoError(t, err)
	numeric, err := rootfind.FiniteDifferenceJacobian(f.Evaluate, x)
	require.NoError(t, err)

	assert.True(t, mat.EqualApprox(analytic, numeric, 1e-7), "analytic\n%v\nnumeric\n%v",
		mat.Formatted(analytic), mat.Formatted(numeric))
}

func TestFinderFunctionConvertsCurrency(t *testing.T) {
	t.Parallel()

	known := market.New().
		WithDiscountCurve(money.EUR, curve.Flat("EUR discounting", 0.01)).
		WithFXRate(market.NewPair(money.EUR, money.USD), 1.1)
	ndf := &instrument.ForexNonDeliverableForward{
		Currency1:    money.EUR,
		Currency2:    money.USD,
		Notional:     1e6,
		ExchangeRate: 1.12,
		FixingTime:   0.98,
		PaymentTime:  1,
	}
	data := &DataBundle{
		KnownMarket:     known,
		Instruments:     []instrument.Instrument{ndf},
		CurveNames:      []string{"USD discounting"},
		NodeTimes:       [][]float64{{1}},
		Interpolators:   []interp.Interpolator{interp.Linear{}},
		DiscountingRefs: map[money.Currency]int{money.USD: 0},
	}
	calc := pricing.NewPresentValueCalculator(pricing.DefaultMethods())
	f, err := NewFinderFunction(data, calc)
	require.NoError(t, err)

	x := []float64{0.03}
	residual, err := f.Evaluate(x)
	require.NoError(t, err)

	m, err := BuildMarket(data, x)
	require.NoError(t, err)
	pv, err := calc.PresentValue(ndf, m)
	require.NoError(t, err)
	want, err := m.Convert(pv, money.USD)
	require.NoError(t, err)
	assert.InDelta(t, want, residual[0], 1e-9)
	assert.Len(t, pv.Currencies(), 2)
}

func TestPriceIndexCalibration(t *testing.T) {
	t.Parallel()

	hicp := instrument.PriceIndex{Name: "EU HICP", Currency: money.EUR}
	dc := curve.Flat("EUR discounting", 0.01)
	known := market.New().WithDiscountCurve(money.EUR, dc)

	maturities := []float64{1, 2, 5}
	var insts []instrument.Instrument
	var values []float64
	for _, tm := range maturities {
		insts = append(insts, &instrument.InflationZeroCouponMonthly{
			Ccy:              money.EUR,
			PaymentTime:      tm,
			Notional:         1,
			PriceIndex:       hicp,
			IndexStartValue:  100,
			ReferenceEndTime: tm,
			PayNotional:      true,
		})
		values = append(values, math.Pow(1.02, tm)*dc.DiscountFactor(tm))
	}

	b := tightBuilder()
	step := Step{
		Instruments:    [][]instrument.Instrument{insts},
		CurveNames:     []string{"EU HICP"},
		MarketValues:   values,
		PriceIndexRefs: map[string]int{hicp.Name: 0},
		Interpolator:   interp.Linear{},
	}
	_, err := b.DiscountingForward(known, step)
	require.ErrorIs(t, err, ErrInvalidConfiguration, "price index curves need start values")

	step.StartValues = []float64{100, 100, 100}
	m, err := b.DiscountingForward(known, step)
	require.NoError(t, err)

	pc, err := m.PriceIndexCurve(hicp.Name)
	require.NoError(t, err)
	for i, tm := range maturities {
		assert.InDelta(t, 100*math.Pow(1.02, tm), pc.Values()[i], 1e-8)
	}
	got, err := m.DiscountCurve(money.EUR)
	require.NoError(t, err)
	assert.Same(t, dc, got)
}

func TestDiscountingForwardConsecutive(t *testing.T) {
	t.Parallel()

	known := market.New().WithFXRate(market.NewPair(money.EUR, money.USD), 1.1)
	steps := []Step{
		{
			Instruments:     [][]instrument.Instrument{deposits(money.EUR, []float64{0.5, 1, 2}, []float64{0.01, 0.012, 0.015})},
			CurveNames:      []string{"EUR discounting"},
			DiscountingRefs: map[money.Currency]int{money.EUR: 0},
			Interpolator:    interp.Linear{},
		},
		{
			Instruments:  [][]instrument.Instrument{{fra(t, 0, 0.5, 0.02), fra(t, 0.5, 1, 0.022), fra(t, 1.5, 2, 0.025)}},
			CurveNames:   []string{"EUR EURIBOR6M"},
			ForwardRefs:  map[string]int{euribor6M.Name: 0},
			Interpolator: interp.Linear{},
		},
	}

	b := tightBuilder()
	first, err := b.DiscountingForward(known, steps[0])
	require.NoError(t, err)
	final, err := b.DiscountingForwardConsecutive(known, steps)
	require.NoError(t, err)

	assert.Equal(t, []string{"EUR EURIBOR6M", "EUR discounting"}, final.CurveNames())
	rate, err := final.FXRate(money.EUR, money.USD)
	require.NoError(t, err)
	assert.Equal(t, 1.1, rate)

	want, err := first.CurveValues("EUR discounting")
	require.NoError(t, err)
	got, err := final.CurveValues("EUR discounting")
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, got, 1e-12)

	_, err = known.DiscountCurve(money.EUR)
	assert.ErrorIs(t, err, market.ErrCurveNotFound, "known market is not modified")

	_, err = b.DiscountingForwardConsecutive(known, nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestBuildAll(t *testing.T) {
	t.Parallel()

	request := func(ccy money.Currency, rates []float64) Request {
		return Request{Steps: []Step{{
			Instruments:     [][]instrument.Instrument{deposits(ccy, []float64{0.25, 1, 5}, rates)},
			CurveNames:      []string{string(ccy) + " discounting"},
			DiscountingRefs: map[money.Currency]int{ccy: 0},
			Interpolator:    interp.Linear{},
		}}}
	}

	b := NewBuilder()
	out, err := b.BuildAll(context.Background(), []Request{
		request(money.EUR, []float64{0.01, 0.015, 0.02}),
		request(money.USD, []float64{0.04, 0.042, 0.038}),
		request(money.GBP, []float64{0.045, 0.044, 0.04}),
	})
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i, ccy := range []money.Currency{money.EUR, money.USD, money.GBP} {
		c, err := out[i].DiscountCurve(ccy)
		require.NoError(t, err)
		assert.Equal(t, string(ccy)+" discounting", c.Name())
	}

	bad := request(money.EUR, []float64{0.01, 0.015, 0.02})
	bad.Steps[0].CurveNames = nil
	_, err = b.BuildAll(context.Background(), []Request{request(money.USD, []float64{0.04, 0.042, 0.038}), bad})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestCalibrationErrors(t *testing.T) {
	t.Parallel()

	insts := deposits(money.EUR, []float64{0.25, 1, 5}, []float64{0.01, 0.015, 0.02})

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{
			name: "too few nodes",
			run: func() error {
				_, err := NewBuilder().DiscountingForward(nil, Step{
					Instruments:     [][]instrument.Instrument{insts},
					CurveNames:      []string{"EUR discounting"},
					NodeTimes:       [][]float64{{1, 5}},
					DiscountingRefs: map[money.Currency]int{money.EUR: 0},
					Interpolator:    interp.Linear{},
				})
				return err
			},
			want: ErrInvalidConfiguration,
		},
		{
			name: "start vector length",
			run: func() error {
				_, err := NewBuilder().Discounting(insts, []float64{0.01}, money.EUR, nil, interp.Linear{})
				return err
			},
			want: ErrInvalidConfiguration,
		},
		{
			name: "unsorted maturities",
			run: func() error {
				_, err := NewBuilder().Discounting([]instrument.Instrument{insts[1], insts[0]}, nil, money.EUR, nil, interp.Linear{})
				return err
			},
			want: ErrInvalidConfiguration,
		},
		{
			name: "unreferenced curve",
			run: func() error {
				_, err := NewBuilder().DiscountingForward(nil, Step{
					Instruments:  [][]instrument.Instrument{insts},
					CurveNames:   []string{"EUR discounting"},
					Interpolator: interp.Linear{},
				})
				return err
			},
			want: ErrInvalidConfiguration,
		},
		{
			name: "no convergence",
			run: func() error {
				b := NewBuilder(WithRootFinder(rootfind.NewBroyden(1e-14, 0, 1)))
				_, err := b.Discounting(insts, nil, money.EUR, nil, interp.Linear{})
				return err
			},
			want: ErrCalibrationFailed,
		},
		{
			name: "missing known curve",
			run: func() error {
				_, err := NewBuilder().DiscountingForward(nil, Step{
					Instruments:  [][]instrument.Instrument{{fra(t, 0, 0.5, 0.02)}},
					CurveNames:   []string{"EUR EURIBOR6M"},
					ForwardRefs:  map[string]int{euribor6M.Name: 0},
					Interpolator: interp.Linear{},
				})
				return err
			},
			want: market.ErrCurveNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), tt.want)
		})
	}

	b := NewBuilder(WithRootFinder(rootfind.NewBroyden(1e-14, 0, 1)))
	_, err := b.Discounting(insts, nil, money.EUR, nil, interp.Linear{})
	assert.ErrorIs(t, err, rootfind.ErrNoConvergence)
}

func TestMaturityNodeTime(t *testing.T) {
	t.Parallel()

	fwd := &instrument.ForexForward{Currency1: money.EUR, Amount1: 1, Currency2: money.USD, Amount2: -1.1, PaymentTime: 1.5}
	tests := []struct {
		inst instrument.Instrument
		want float64
	}{
		{&instrument.Deposit{Ccy: money.EUR, EndTime: 0.25}, 0.25},
		{fra(t, 1.5, 2, 0.02), 2},
		{&instrument.InterestRateFuture{Ccy: money.EUR, LastTradingTime: 0.2, FixingPeriodStartTime: 0.25, FixingPeriodEndTime: 0.5}, 0.5},
		{fwd, 1.5},
		{&instrument.ForexOptionVanilla{Underlying: fwd, ExpiryTime: 1.4}, 1.5},
		{&instrument.InflationZeroCouponInterpolation{Ccy: money.EUR, PaymentTime: 5, ReferenceEndTimes: [2]float64{4.75, 4.83}}, 4.83},
	}
	for _, tt := range tests {
		got, err := MaturityNodeTime{}.NodeTime(tt.inst)
		require.NoError(t, err, tt.inst.Kind().String())
		assert.Equal(t, tt.want, got, tt.inst.Kind().String())
	}

	_, err := MaturityNodeTime{}.NodeTime(nil)
	assert.ErrorIs(t, err, instrument.ErrNilInstrument)

	for _, inst := range []instrument.Instrument{
		&instrument.ForexOptionVanilla{},
		&instrument.ForexOptionSingleBarrier{},
		&instrument.ForexOptionDigital{},
		&instrument.ForexNonDeliverableOption{},
	} {
		_, err := MaturityNodeTime{}.NodeTime(inst)
		assert.ErrorIs(t, err, instrument.ErrInvalidInstrument, inst.Kind().String())
	}
}

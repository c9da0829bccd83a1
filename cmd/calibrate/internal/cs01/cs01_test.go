package cs01

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func input(mutate func(*Input)) string {
	in := Input{
		TradeDate:   "2024-06-13",
		Notional:    10_000_000,
		Recovery:    0.4,
		CouponBP:    100,
		TenorMonths: 48,
		Pillars: []Pillar{
			{TenorMonths: 6, ParSpreadBP: 80},
			{TenorMonths: 12, ParSpreadBP: 95},
			{TenorMonths: 36, ParSpreadBP: 110},
			{TenorMonths: 60, ParSpreadBP: 125},
			{TenorMonths: 84, ParSpreadBP: 135},
			{TenorMonths: 120, ParSpreadBP: 140},
		},
		Discount: Discount{
			Tenors:       []string{"6M", "1Y", "2Y", "5Y", "10Y"},
			ZeroRatesPct: []float64{3.0, 3.1, 3.2, 3.4, 3.6},
		},
		BumpBP: 0.1,
	}
	if mutate != nil {
		mutate(&in)
	}
	b, _ := json.Marshal(in)
	return string(b)
}

func runCS01(t *testing.T, in string, args ...string) (int, Output) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(args, strings.NewReader(in), &stdout, &stderr)
	var out Output
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out), stdout.String())
	return code, out
}

func TestRunStandardCDS(t *testing.T) {
	code, out := runCS01(t, input(nil))
	require.Equal(t, 0, code, out.Error)

	assert.Equal(t, "2028-06-20", out.MaturityDate)
	par := out.ParSpreadBP.InexactFloat64()
	assert.Greater(t, par, 100.0)
	assert.Less(t, par, 130.0)
	assert.True(t, out.CleanPV.IsPositive(), "par spread above the coupon favours the protection buyer")

	parallel := out.ParallelCS01.InexactFloat64()
	assert.Greater(t, parallel, 2000.0)
	assert.Less(t, parallel, 5000.0)

	require.Len(t, out.Bucketed, 6)
	assert.Equal(t, "2024-12-20", out.Bucketed[0].MaturityDate)
	assert.True(t, out.Bucketed[4].CS01.IsZero())
	assert.True(t, out.Bucketed[5].CS01.IsZero())

	sum := decimal.Zero
	for _, b := range out.Bucketed {
		sum = sum.Add(b.CS01)
	}
	assert.InEpsilon(t, parallel, sum.InexactFloat64(), 1e-2)
}

func TestRunMaturityDateAndMultiplicative(t *testing.T) {
	code, additive := runCS01(t, input(func(in *Input) { in.MaturityDate = "2028-06-20"; in.TenorMonths = 0 }))
	require.Equal(t, 0, code, additive.Error)
	code, standard := runCS01(t, input(nil))
	require.Equal(t, 0, code, standard.Error)
	assert.True(t, additive.ParallelCS01.Equal(standard.ParallelCS01))

	code, mult := runCS01(t, input(func(in *Input) { in.BumpType = "Multiplicative"; in.BumpBP = 10 }), "-v")
	require.Equal(t, 0, code, mult.Error)
	assert.True(t, mult.ParallelCS01.IsPositive())
	assert.True(t, mult.ParallelCS01.LessThan(additive.ParallelCS01), "a relative 1bp move is smaller than 1bp")
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		want   string
	}{
		{name: "bad trade date", mutate: func(in *Input) { in.TradeDate = "20240613" }, want: "invalid trade_date"},
		{name: "no maturity", mutate: func(in *Input) { in.TenorMonths = 0 }, want: "tenor_months or maturity_date is required"},
		{name: "no pillars", mutate: func(in *Input) { in.Pillars = nil }, want: "pillars is required"},
		{name: "bad pillar", mutate: func(in *Input) { in.Pillars[1].TenorMonths = 0 }, want: "pillar 1: tenor_months must be positive"},
		{name: "unsorted pillars", mutate: func(in *Input) { in.Pillars[0].TenorMonths = 24 }, want: "pillar maturities must be increasing"},
		{name: "negative spread", mutate: func(in *Input) { in.Pillars[2].ParSpreadBP = -5 }, want: "invalid spread"},
		{name: "bad bump type", mutate: func(in *Input) { in.BumpType = "log" }, want: `invalid bump_type "log"`},
		{name: "rates mismatch", mutate: func(in *Input) { in.Discount.ZeroRatesPct = []float64{3} }, want: "5 tenors and 1 zero rates"},
		{name: "no discount", mutate: func(in *Input) { in.Discount = Discount{} }, want: "discount.tenors is required"},
		{name: "bad discount tenor", mutate: func(in *Input) { in.Discount.Tenors[0] = "6Q" }, want: "invalid tenor"},
		{name: "bad recovery", mutate: func(in *Input) { in.Recovery = 1 }, want: "invalid cds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := runCS01(t, input(tt.mutate))
			assert.Equal(t, 1, code)
			assert.Contains(t, out.Error, tt.want)
		})
	}
}

package sensitivity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/mocurve/curve"
	"github.com/meenmo/mocurve/interp"
	"github.com/meenmo/mocurve/market"
	"github.com/meenmo/mocurve/money"
	"github.com/meenmo/mocurve/sensitivity"
)

func TestPlusThenCleanedMerges(t *testing.T) {
	t.Parallel()

	a := sensitivity.Of("EUR discounting", sensitivity.Point{Time: 2, Amount: 1}, sensitivity.Point{Time: 1, Amount: 3})
	b := sensitivity.Of("EUR discounting", sensitivity.Point{Time: 2, Amount: 0.5}).
		Plus(sensitivity.Of("EURIBOR6M", sensitivity.Point{Time: 0.5, Amount: -1}))

	sum := a.Plus(b)
	assert.Len(t, sum.Points("EUR discounting"), 3, "concatenation, no overwrite")

	clean := sum.Cleaned()
	assert.Equal(t, []sensitivity.Point{{Time: 1, Amount: 3}, {Time: 2, Amount: 1.5}}, clean.Points("EUR discounting"))
	assert.Equal(t, []string{"EUR discounting", "EURIBOR6M"}, clean.Names())
	assert.Equal(t, 4.5, clean.Total("EUR discounting"))

	// Operands untouched.
	assert.Len(t, a.Points("EUR discounting"), 2)
	assert.True(t, sensitivity.Equal(sum, clean, 1e-15))
	assert.False(t, sensitivity.Equal(a, b, 1e-15))
}

func TestMultipleCurrency(t *testing.T) {
	t.Parallel()

	eur := sensitivity.OfCurrency(money.EUR, sensitivity.Of("EUR discounting", sensitivity.Point{Time: 1, Amount: 1}))
	usd := sensitivity.OfCurrency(money.USD, sensitivity.Of("USD discounting", sensitivity.Point{Time: 1, Amount: 2}))

	sum := eur.Plus(usd).Plus(eur).Multiplied(2).Cleaned()
	assert.Equal(t, []money.Currency{money.EUR, money.USD}, sum.Currencies())
	assert.Equal(t, []sensitivity.Point{{Time: 1, Amount: 4}}, sum.Sensitivity(money.EUR).Points("EUR discounting"))
	assert.Empty(t, sum.Sensitivity(money.JPY).Names())
}

func TestParameterProjection(t *testing.T) {
	t.Parallel()

	c, err := curve.NewYieldCurve("EUR discounting", []float64{1, 2, 5}, []float64{0.01, 0.02, 0.03}, interp.Linear{})
	require.NoError(t, err)
	m := market.New().WithDiscountCurve(money.EUR, c)

	s := sensitivity.Of("EUR discounting",
		sensitivity.Point{Time: 1.5, Amount: 10},
		sensitivity.Point{Time: 5, Amount: 1},
		sensitivity.Point{Time: 7, Amount: 2},
	)
	p, err := sensitivity.Parameter(s, m)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5, 5, 3}, p["EUR discounting"], 1e-12)

	v, err := sensitivity.ParameterVector(sensitivity.CurveSensitivity{}, m, []string{"EUR discounting"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, v)

	_, err = sensitivity.Parameter(sensitivity.Of("missing", sensitivity.Point{Time: 1, Amount: 1}), m)
	assert.ErrorIs(t, err, market.ErrCurveNotFound)
}

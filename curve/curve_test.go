package curve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/mocurve/interp"
)

func TestNewValidatesNodes(t *testing.T) {
	t.Parallel()

	_, err := New("c", nil, nil, interp.Linear{})
	assert.ErrorIs(t, err, ErrInvalidNodes)

	_, err = New("c", []float64{1, 2}, []float64{0.01}, interp.Linear{})
	assert.ErrorIs(t, err, ErrInvalidNodes)

	_, err = New("c", []float64{1, 1}, []float64{0.01, 0.02}, interp.Linear{})
	assert.ErrorIs(t, err, ErrInvalidNodes)

	_, err = New("c", []float64{1}, []float64{math.NaN()}, interp.Linear{})
	assert.ErrorIs(t, err, ErrInvalidNodes)

	_, err = New("c", []float64{1}, []float64{0.01}, nil)
	assert.ErrorIs(t, err, ErrInvalidNodes)
}

func TestCurveIsImmutable(t *testing.T) {
	t.Parallel()

	times := []float64{1, 2}
	rates := []float64{0.01, 0.02}
	c, err := NewYieldCurve("EUR discounting", times, rates, interp.Linear{})
	require.NoError(t, err)

	rates[0] = 0.5
	c.Values()[1] = 0.5
	assert.Equal(t, []float64{0.01, 0.02}, c.Values())

	b, err := c.Bumped(1, 0.001)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.01, 0.02}, c.Values())
	assert.InDelta(t, 0.021, b.Values()[1], 1e-15)
	assert.Equal(t, c.Name(), b.Name())

	_, err = c.Bumped(2, 0.001)
	assert.ErrorIs(t, err, ErrNodeIndexOutRange)
}

func TestYieldCurve(t *testing.T) {
	t.Parallel()

	c, err := NewYieldCurve("USD discounting", []float64{1, 5}, []float64{0.02, 0.03}, interp.Linear{})
	require.NoError(t, err)

	assert.InDelta(t, math.Exp(-0.02*0.5), c.DiscountFactor(0.5), 1e-15)
	assert.InDelta(t, math.Exp(-0.025*3), c.DiscountFactor(3), 1e-15)
	assert.Equal(t, 1.0, c.DiscountFactor(0))

	fwd := c.ForwardRate(1, 2, 1)
	assert.InDelta(t, c.DiscountFactor(1)/c.DiscountFactor(2)-1, fwd, 1e-15)

	s := c.ParallelShift(0.01)
	assert.InDelta(t, 0.035, s.ZeroRate(3), 1e-15)
}

func TestPriceIndexCurve(t *testing.T) {
	t.Parallel()

	c, err := NewPriceIndexCurve("EU HICP", []float64{1, 2}, []float64{100, 104}, interp.Linear{})
	require.NoError(t, err)
	assert.InDelta(t, 102, c.Index(1.5), 1e-12)
	assert.Equal(t, []float64{0.5, 0.5}, c.NodeSensitivity(1.5))
}

func TestParseTenor(t *testing.T) {
	t.Parallel()

	tests := map[string]float64{"3M": 0.25, "10y": 10, "1W": 7.0 / 365.0, "2.5": 2.5, "30D": 30.0 / 365.0}
	for in, want := range tests {
		got, err := ParseTenor(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-15, in)
	}
	for _, bad := range []string{"", "XM", "1Q"} {
		_, err := ParseTenor(bad)
		assert.ErrorIs(t, err, ErrInvalidTenor, bad)
	}
}

package rootfind

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// linearSystem is A x - b.
func linearSystem(x []float64) ([]float64, error) {
	return []float64{
		2*x[0] + x[1] - 3,
		x[0] + 3*x[1] - 5,
	}, nil
}

// rosenbrockGradient vanishes at (1, 1).
func rosenbrockGradient(x []float64) ([]float64, error) {
	return []float64{
		-2*(1-x[0]) - 400*x[0]*(x[1]-x[0]*x[0]),
		200 * (x[1] - x[0]*x[0]),
	}, nil
}

func TestBroydenLinear(t *testing.T) {
	t.Parallel()

	root, err := NewBroyden(1e-10, 1e-12, 50).Root(linearSystem, nil, []float64{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, root[0], 1e-9)
	assert.InDelta(t, 1.4, root[1], 1e-9)
}

func TestBroydenNonlinear(t *testing.T) {
	t.Parallel()

	f := func(x []float64) ([]float64, error) {
		return []float64{
			x[0]*x[0] + x[1]*x[1] - 4,
			math.Exp(x[0]) + x[1] - 1,
		}, nil
	}
	root, err := NewBroyden(1e-10, 1e-12, 100).Root(f, nil, []float64{1, -1.5})
	require.NoError(t, err)
	y, _ := f(root)
	assert.InDelta(t, 0, y[0], 1e-9)
	assert.InDelta(t, 0, y[1], 1e-9)
}

func TestBroydenWithAnalyticJacobian(t *testing.T) {
	t.Parallel()

	jac := func(x []float64) (*mat.Dense, error) {
		return mat.NewDense(2, 2, []float64{
			2 - 400*(x[1]-3*x[0]*x[0]), -400 * x[0],
			-400 * x[0], 200,
		}), nil
	}
	root, err := NewBroyden(1e-10, 1e-14, 500).Root(rosenbrockGradient, jac, []float64{0.9, 0.8})
	require.NoError(t, err)
	assert.InDelta(t, 1, root[0], 1e-6)
	assert.InDelta(t, 1, root[1], 1e-6)
}

func TestBroydenStartAtRoot(t *testing.T) {
	t.Parallel()

	root, err := NewBroyden(1e-10, 1e-12, 1).Root(linearSystem, nil, []float64{0.8, 1.4})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.8, 1.4}, root)
}

func TestBroydenDimensionMismatch(t *testing.T) {
	t.Parallel()

	f := func(x []float64) ([]float64, error) { return []float64{x[0]}, nil }
	_, err := NewBroyden(1e-10, 1e-12, 10).Root(f, nil, []float64{1, 2})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = NewBroyden(1e-10, 1e-12, 10).Root(linearSystem, nil, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	badJac := func(x []float64) (*mat.Dense, error) { return mat.NewDense(1, 1, []float64{1}), nil }
	_, err = NewBroyden(1e-10, 1e-12, 10).Root(linearSystem, badJac, []float64{0, 0})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestBroydenNoConvergence(t *testing.T) {
	t.Parallel()

	// x^2 + 1 has no real root.
	f := func(x []float64) ([]float64, error) { return []float64{x[0]*x[0] + 1}, nil }
	_, err := NewBroyden(1e-10, 1e-12, 20).Root(f, nil, []float64{3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoConvergence) || errors.Is(err, ErrSingularJacobian), err.Error())
}

func TestBroydenPropagatesEvaluationError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	f := func(x []float64) ([]float64, error) { return nil, boom }
	_, err := NewBroyden(1e-10, 1e-12, 20).Root(f, nil, []float64{3})
	assert.ErrorIs(t, err, boom)
}

func TestBrent(t *testing.T) {
	t.Parallel()

	f := func(x float64) (float64, error) { return x*x*x - 2*x - 5, nil }
	root, err := Brent(f, 2, 3, 1e-14, 100)
	require.NoError(t, err)
	assert.InDelta(t, 2.0945514815423265, root, 1e-12)

	_, err = Brent(f, 3, 4, 1e-14, 100)
	assert.ErrorIs(t, err, ErrNotBracketed)
}

func TestExpandBracket(t *testing.T) {
	t.Parallel()

	f := func(x float64) (float64, error) { return x - 7, nil }
	lo, hi, err := ExpandBracket(f, 0, 1, 0, 100, 50)
	require.NoError(t, err)
	assert.LessOrEqual(t, lo, 7.0)
	assert.GreaterOrEqual(t, hi, 7.0)

	_, _, err = ExpandBracket(f, 0, 1, 0, 5, 50)
	assert.ErrorIs(t, err, ErrNotBracketed)
}

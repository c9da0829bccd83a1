// Package rootfind solves nonlinear equations: a quasi-Newton Broyden solver
// for square vector systems and a Brent bracketing solver for scalar ones.
package rootfind

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrNoConvergence     = errors.New("no convergence")
	ErrSingularJacobian  = errors.New("singular jacobian")
	ErrNotBracketed      = errors.New("root not bracketed")
)

// VectorFunc maps R^n to R^n.
type VectorFunc func(x []float64) ([]float64, error)

// JacobianFunc returns the n x n Jacobian of a VectorFunc at x.
type JacobianFunc func(x []float64) (*mat.Dense, error)

// Broyden finds x such that f(x) = 0 with rank-one Jacobian updates.
type Broyden struct {
	absoluteTolerance float64
	relativeTolerance float64
	maxSteps          int
}

// NewBroyden returns a solver that stops when the residual norm is below absTol.
// A step shorter than relTol (1 + |x|) re-initialises the Jacobian; a second
// such step in a row fails with ErrNoConvergence.
func NewBroyden(absTol, relTol float64, maxSteps int) Broyden {
	return Broyden{absoluteTolerance: absTol, relativeTolerance: relTol, maxSteps: maxSteps}
}

// ---------------------------------------------------------------------------
// Solver
// ---------------------------------------------------------------------------

const minStepLength = 1.0 / 1024

// Root solves f(x) = 0 starting from x0. jac may be nil, in which case the
// Jacobian is initialised by central finite differences.
func (b Broyden) Root(f VectorFunc, jac JacobianFunc, x0 []float64) ([]float64, error) {
	n := len(x0)
	if n == 0 {
		return nil, fmt.Errorf("Broyden: %w: empty start point", ErrDimensionMismatch)
	}
	x := append([]float64(nil), x0...)
	y, err := evaluate(f, x)
	if err != nil {
		return nil, err
	}
	norm := floats.Norm(y, 2)
	if norm <= b.absoluteTolerance {
		return x, nil
	}

	j, err := initialJacobian(f, jac, x)
	if err != nil {
		return nil, err
	}
	fresh := true

	dx := mat.NewVecDense(n, nil)
	rhs := mat.NewVecDense(n, nil)
	xNew := make([]float64, n)
	for step := 0; step < b.maxSteps; step++ {
		for i := range y {
			rhs.SetVec(i, -y[i])
		}
		if err := solve(dx, j, rhs); err != nil {
			if fresh {
				return nil, err
			}
			if j, err = initialJacobian(f, jac, x); err != nil {
				return nil, err
			}
			fresh = true
			continue
		}

		// Backtrack along the Newton direction until the residual decreases.
		var yNew []float64
		lambda := 1.0
		improved := false
		for lambda >= minStepLength {
			for i := range x {
				xNew[i] = x[i] + lambda*dx.AtVec(i)
			}
			yNew, err = evaluate(f, xNew)
			if err != nil {
				return nil, err
			}
			if normNew := floats.Norm(yNew, 2); normNew < norm {
				improved = true
				break
			}
			lambda /= 2
		}
		if !improved {
			if fresh {
				return nil, fmt.Errorf("Broyden: %w: line search failed after %d steps, residual %g", ErrNoConvergence, step, norm)
			}
			if j, err = initialJacobian(f, jac, x); err != nil {
				return nil, err
			}
			fresh = true
			continue
		}

		s := make([]float64, n)
		floats.SubTo(s, xNew, x)
		dy := make([]float64, n)
		floats.SubTo(dy, yNew, y)
		stepNorm := floats.Norm(s, 2)

		copy(x, xNew)
		y = yNew
		norm = floats.Norm(y, 2)
		if norm <= b.absoluteTolerance {
			return x, nil
		}
		if stepNorm <= b.relativeTolerance*(1+floats.Norm(x, 2)) {
			if fresh {
				return nil, fmt.Errorf("Broyden: %w: stalled after %d steps, residual %g", ErrNoConvergence, step+1, norm)
			}
			if j, err = initialJacobian(f, jac, x); err != nil {
				return nil, err
			}
			fresh = true
			continue
		}

		broydenUpdate(j, s, dy)
		fresh = false
	}
	return nil, fmt.Errorf("Broyden: %w: %d steps, residual %g", ErrNoConvergence, b.maxSteps, norm)
}

// broydenUpdate applies J += (dy - J s) s^T / (s^T s).
func broydenUpdate(j *mat.Dense, s, dy []float64) {
	sv := mat.NewVecDense(len(s), s)
	var js mat.VecDense
	js.MulVec(j, sv)
	u := mat.NewVecDense(len(dy), nil)
	u.SubVec(mat.NewVecDense(len(dy), dy), &js)
	j.RankOne(j, 1/floats.Dot(s, s), u, sv)
}

func solve(dst *mat.VecDense, j *mat.Dense, rhs *mat.VecDense) error {
	if err := dst.SolveVec(j, rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return fmt.Errorf("Broyden: %w: %v", ErrSingularJacobian, err)
		}
	}
	for i := 0; i < dst.Len(); i++ {
		if v := dst.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("Broyden: %w: non-finite step", ErrSingularJacobian)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func evaluate(f VectorFunc, x []float64) ([]float64, error) {
	y, err := f(x)
	if err != nil {
		return nil, err
	}
	if len(y) != len(x) {
		return nil, fmt.Errorf("Broyden: %w: %d unknowns, %d residuals", ErrDimensionMismatch, len(x), len(y))
	}
	return y, nil
}

func initialJacobian(f VectorFunc, jac JacobianFunc, x []float64) (*mat.Dense, error) {
	n := len(x)
	if jac != nil {
		j, err := jac(x)
		if err != nil {
			return nil, err
		}
		if r, c := j.Dims(); r != n || c != n {
			return nil, fmt.Errorf("Broyden: %w: jacobian is %dx%d for %d unknowns", ErrDimensionMismatch, r, c, n)
		}
		return mat.DenseCopyOf(j), nil
	}
	return FiniteDifferenceJacobian(f, x)
}

// FiniteDifferenceJacobian computes the Jacobian of f at x by central differences.
func FiniteDifferenceJacobian(f VectorFunc, x []float64) (*mat.Dense, error) {
	n := len(x)
	var evalErr error
	j := mat.NewDense(n, n, nil)
	fd.Jacobian(j, func(y, p []float64) {
		if evalErr != nil {
			return
		}
		r, err := evaluate(f, p)
		if err != nil {
			evalErr = err
			return
		}
		copy(y, r)
	}, x, &fd.JacobianSettings{Formula: fd.Central})
	if evalErr != nil {
		return nil, evalErr
	}
	return j, nil
}

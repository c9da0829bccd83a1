package rootfind

import (
	"fmt"
	"math"
)

const machineEpsilon = 2.220446049250313e-16

// ScalarFunc maps R to R.
type ScalarFunc func(x float64) (float64, error)

// Brent finds a root of f in [lower, upper] to within tol.
// f(lower) and f(upper) must have opposite signs.
func Brent(f ScalarFunc, lower, upper, tol float64, maxIter int) (float64, error) {
	a, b := lower, upper
	fa, err := f(a)
	if err != nil {
		return 0, err
	}
	fb, err := f(b)
	if err != nil {
		return 0, err
	}
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if math.Signbit(fa) == math.Signbit(fb) {
		return 0, fmt.Errorf("Brent: %w: f(%g)=%g, f(%g)=%g", ErrNotBracketed, a, fa, b, fb)
	}

	c, fc := b, fb
	var d, e float64
	for iter := 0; iter < maxIter; iter++ {
		if (fb > 0 && fc > 0) || (fb < 0 && fc < 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}
		tol1 := 2*machineEpsilon*math.Abs(b) + 0.5*tol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return b, nil
		}
		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			// Inverse quadratic interpolation, or secant when only two points are distinct.
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			if 2*p < math.Min(3*xm*q-math.Abs(tol1*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}
		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}
		if fb, err = f(b); err != nil {
			return 0, err
		}
	}
	return 0, fmt.Errorf("Brent: %w: did not converge after %d iterations", ErrNoConvergence, maxIter)
}

// ExpandBracket widens [lower, upper] geometrically until f changes sign,
// never leaving [floor, ceiling].
func ExpandBracket(f ScalarFunc, lower, upper, floor, ceiling float64, maxIter int) (float64, float64, error) {
	fl, err := f(lower)
	if err != nil {
		return 0, 0, err
	}
	fu, err := f(upper)
	if err != nil {
		return 0, 0, err
	}
	for iter := 0; iter < maxIter; iter++ {
		if math.Signbit(fl) != math.Signbit(fu) || fl == 0 || fu == 0 {
			return lower, upper, nil
		}
		width := upper - lower
		if math.Abs(fl) < math.Abs(fu) && lower > floor {
			lower = math.Max(floor, lower-width)
			if fl, err = f(lower); err != nil {
				return 0, 0, err
			}
		} else if upper < ceiling {
			upper = math.Min(ceiling, upper+width)
			if fu, err = f(upper); err != nil {
				return 0, 0, err
			}
		} else if lower > floor {
			lower = math.Max(floor, lower-width)
			if fl, err = f(lower); err != nil {
				return 0, 0, err
			}
		} else {
			break
		}
	}
	return 0, 0, fmt.Errorf("ExpandBracket: %w: [%g, %g]", ErrNotBracketed, lower, upper)
}

package pricing

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/diff/fd"

	"github.com/meenmo/mocurve/instrument"
	"github.com/meenmo/mocurve/market"
	"github.com/meenmo/mocurve/money"
)

var ErrUnknownScheme = errors.New("unknown finite difference scheme")

// Scheme selects the finite difference stencil.
type Scheme int

const (
	Central Scheme = iota
	Forward
	Backward
)

func (s Scheme) formula() (fd.Formula, error) {
	switch s {
	case Central:
		return fd.Central, nil
	case Forward:
		return fd.Forward, nil
	case Backward:
		return fd.Backward, nil
	}
	return fd.Formula{}, fmt.Errorf("%w: %d", ErrUnknownScheme, s)
}

// FiniteDifference bumps the node values of one curve and reprices. It is the
// bump-and-reprice counterpart of the adjoint curve sensitivities projected on nodes.
type FiniteDifference struct {
	Shift  float64
	Scheme Scheme
}

// NodeSensitivity returns d PV(ccy) / d node_i for every node of the named curve.
func (f FiniteDifference) NodeSensitivity(calc PresentValueCalculator, inst instrument.Instrument, m *market.Bundle, ccy money.Currency, curveName string) ([]float64, error) {
	if err := checkMarket("NodeSensitivity", m); err != nil {
		return nil, err
	}
	formula, err := f.Scheme.formula()
	if err != nil {
		return nil, fmt.Errorf("NodeSensitivity: %w", err)
	}
	values, err := m.CurveValues(curveName)
	if err != nil {
		return nil, fmt.Errorf("NodeSensitivity: %w", err)
	}
	var evalErr error
	pv := func(x []float64) float64 {
		if evalErr != nil {
			return 0
		}
		bumped, err := m.WithCurveValues(curveName, x)
		if err != nil {
			evalErr = err
			return 0
		}
		a, err := calc.PresentValue(inst, bumped)
		if err != nil {
			evalErr = err
			return 0
		}
		return a.AmountOrZero(ccy)
	}
	grad := fd.Gradient(nil, pv, values, &fd.Settings{Formula: formula, Step: f.Shift})
	if evalErr != nil {
		return nil, fmt.Errorf("NodeSensitivity: %w", evalErr)
	}
	return grad, nil
}

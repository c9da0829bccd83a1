package calibration

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/mocurve/instrument"
	"github.com/meenmo/mocurve/market"
	"github.com/meenmo/mocurve/money"
	"github.com/meenmo/mocurve/sensitivity"
)

// PresentValuer prices an instrument against a market, e.g. pricing.PresentValueCalculator.
type PresentValuer interface {
	PresentValue(inst instrument.Instrument, m *market.Bundle) (money.MultipleCurrencyAmount, error)
}

// CurveSensitivityProvider returns point sensitivities, e.g. pricing.CurveSensitivityCalculator.
type CurveSensitivityProvider interface {
	CurveSensitivity(inst instrument.Instrument, m *market.Bundle) (sensitivity.MultipleCurrencyCurveSensitivity, error)
}

// FinderFunction is the residual of a calibration problem: the present value of
// each instrument, in its own currency, less its market value.
type FinderFunction struct {
	data *DataBundle
	pv   PresentValuer
}

func NewFinderFunction(data *DataBundle, pv PresentValuer) (*FinderFunction, error) {
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("NewFinderFunction: %w", err)
	}
	if pv == nil {
		return nil, fmt.Errorf("NewFinderFunction: %w: nil present value calculator", ErrInvalidConfiguration)
	}
	return &FinderFunction{data: data, pv: pv}, nil
}

// Evaluate rebuilds the trial market from x and returns one residual per instrument.
func (f *FinderFunction) Evaluate(x []float64) ([]float64, error) {
	m, err := BuildMarket(f.data, x)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(f.data.Instruments))
	for i, inst := range f.data.Instruments {
		pv, err := f.pv.PresentValue(inst, m)
		if err != nil {
			return nil, fmt.Errorf("FinderFunction: instrument %d: %w", i, err)
		}
		v, err := m.Convert(pv, inst.Currency())
		if err != nil {
			return nil, fmt.Errorf("FinderFunction: instrument %d: %w", i, err)
		}
		out[i] = v - f.data.marketValue(i)
	}
	return out, nil
}

// FinderJacobian is the analytic Jacobian of FinderFunction: row i holds the
// sensitivity of instrument i to every solved node.
type FinderJacobian struct {
	data *DataBundle
	sens CurveSensitivityProvider
}

func NewFinderJacobian(data *DataBundle, sens CurveSensitivityProvider) (*FinderJacobian, error) {
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("NewFinderJacobian: %w", err)
	}
	if sens == nil {
		return nil, fmt.Errorf("NewFinderJacobian: %w: nil sensitivity calculator", ErrInvalidConfiguration)
	}
	return &FinderJacobian{data: data, sens: sens}, nil
}

func (j *FinderJacobian) Evaluate(x []float64) (*mat.Dense, error) {
	m, err := BuildMarket(j.data, x)
	if err != nil {
		return nil, err
	}
	n := len(x)
	out := mat.NewDense(len(j.data.Instruments), n, nil)
	for i, inst := range j.data.Instruments {
		s, err := j.sens.CurveSensitivity(inst, m)
		if err != nil {
			return nil, fmt.Errorf("FinderJacobian: instrument %d: %w", i, err)
		}
		converted, err := convertSensitivity(s, inst.Currency(), m)
		if err != nil {
			return nil, fmt.Errorf("FinderJacobian: instrument %d: %w", i, err)
		}
		row, err := sensitivity.ParameterVector(converted, m, j.data.CurveNames)
		if err != nil {
			return nil, fmt.Errorf("FinderJacobian: instrument %d: %w", i, err)
		}
		out.SetRow(i, row)
	}
	return out, nil
}

// convertSensitivity expresses every currency bucket of s in ccy at spot FX.
func convertSensitivity(s sensitivity.MultipleCurrencyCurveSensitivity, ccy money.Currency, m *market.Bundle) (sensitivity.CurveSensitivity, error) {
	var out sensitivity.CurveSensitivity
	for _, c := range s.Currencies() {
		rate, err := m.FXRate(c, ccy)
		if err != nil {
			return sensitivity.CurveSensitivity{}, err
		}
		out = out.Plus(s.Sensitivity(c).Multiplied(rate))
	}
	return out, nil
}

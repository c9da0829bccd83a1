package pricing

import (
	"github.com/meenmo/mocurve/instrument"
	"github.com/meenmo/mocurve/market"
	"github.com/meenmo/mocurve/money"
)

// VegaCalculator returns the present value sensitivity of FX options to the pair volatility.
// Other instrument kinds are unsupported.
type VegaCalculator struct{}

func (VegaCalculator) Vega(inst instrument.Instrument, m *market.Bundle) (money.Amount, error) {
	if err := checkMarket("Vega", m); err != nil {
		return money.Amount{}, err
	}
	return instrument.Visit[money.Amount](vegaVisitor{market: m}, inst)
}

type vegaVisitor struct {
	instrument.UnsupportedVisitor[money.Amount]
	market *market.Bundle
}

func (v vegaVisitor) VisitForexOptionVanilla(x *instrument.ForexOptionVanilla) (money.Amount, error) {
	return ForexOptionVanillaBlack{}.Vega(x, v.market)
}

func (v vegaVisitor) VisitForexOptionSingleBarrier(x *instrument.ForexOptionSingleBarrier) (money.Amount, error) {
	return ForexOptionSingleBarrierBlack{}.Vega(x, v.market)
}

func (v vegaVisitor) VisitForexOptionDigital(x *instrument.ForexOptionDigital) (money.Amount, error) {
	return ForexOptionDigitalBlack{}.Vega(x, v.market)
}

func (v vegaVisitor) VisitForexNonDeliverableOption(x *instrument.ForexNonDeliverableOption) (money.Amount, error) {
	vanilla, err := x.EquivalentVanilla()
	if err != nil {
		return money.Amount{}, err
	}
	return ForexOptionVanillaBlack{}.Vega(vanilla, v.market)
}

package market

import (
	"fmt"

	"github.com/meenmo/mocurve/money"
)

// Pair is a currency pair quoted as units of Quote per unit of Base.
type Pair struct {
	Base  money.Currency
	Quote money.Currency
}

func NewPair(base, quote money.Currency) Pair {
	return Pair{Base: base, Quote: quote}
}

func (p Pair) Inverse() Pair {
	return Pair{Base: p.Quote, Quote: p.Base}
}

func (p Pair) String() string {
	return string(p.Base) + "/" + string(p.Quote)
}

// FXRate returns the number of units of quote per unit of base.
func (b *Bundle) FXRate(base, quote money.Currency) (float64, error) {
	if base == quote {
		return 1, nil
	}
	p := NewPair(base, quote)
	if r, ok := b.fx[p]; ok {
		return r, nil
	}
	if r, ok := b.fx[p.Inverse()]; ok && r != 0 {
		return 1 / r, nil
	}
	return 0, fmt.Errorf("FXRate: %w: %s", ErrFXRateNotFound, p)
}

// FXVolatility returns the flat Black volatility of the pair, in either orientation.
func (b *Bundle) FXVolatility(base, quote money.Currency) (float64, error) {
	p := NewPair(base, quote)
	if v, ok := b.fxVol[p]; ok {
		return v, nil
	}
	if v, ok := b.fxVol[p.Inverse()]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("FXVolatility: %w: %s", ErrVolatilityNotFound, p)
}

// Convert converts amounts into ccy at the bundle's FX rates.
func (b *Bundle) Convert(m money.MultipleCurrencyAmount, ccy money.Currency) (float64, error) {
	total := 0.0
	for _, a := range m.Amounts() {
		r, err := b.FXRate(a.Currency, ccy)
		if err != nil {
			return 0, err
		}
		total += a.Value * r
	}
	return total, nil
}

// Package money holds currency-tagged amounts returned by the pricing layer.
package money

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code.
type Currency string

const (
	EUR Currency = "EUR"
	USD Currency = "USD"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	KRW Currency = "KRW"
	CHF Currency = "CHF"
)

// Amount is a single currency amount.
type Amount struct {
	Currency Currency
	Value    float64
}

// Rounded returns the amount as a decimal rounded half away from zero.
func (a Amount) Rounded(places int32) decimal.Decimal {
	return decimal.NewFromFloat(a.Value).Round(places)
}

func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.Currency, a.Rounded(2).StringFixed(2))
}

// MultipleCurrencyAmount is an immutable set of amounts keyed by currency.
type MultipleCurrencyAmount struct {
	amounts map[Currency]float64
}

// Of returns a MultipleCurrencyAmount holding a single amount.
func Of(ccy Currency, value float64) MultipleCurrencyAmount {
	return MultipleCurrencyAmount{amounts: map[Currency]float64{ccy: value}}
}

// Amount returns the amount in ccy and whether it is present.
func (m MultipleCurrencyAmount) Amount(ccy Currency) (float64, bool) {
	v, ok := m.amounts[ccy]
	return v, ok
}

// AmountOrZero returns the amount in ccy, zero when absent.
func (m MultipleCurrencyAmount) AmountOrZero(ccy Currency) float64 {
	return m.amounts[ccy]
}

// Plus adds every amount of other.
func (m MultipleCurrencyAmount) Plus(other MultipleCurrencyAmount) MultipleCurrencyAmount {
	out := m.clone()
	for ccy, v := range other.amounts {
		out.amounts[ccy] += v
	}
	return out
}

// PlusAmount adds value in ccy.
func (m MultipleCurrencyAmount) PlusAmount(ccy Currency, value float64) MultipleCurrencyAmount {
	out := m.clone()
	out.amounts[ccy] += value
	return out
}

// Multiplied scales every amount by factor.
func (m MultipleCurrencyAmount) Multiplied(factor float64) MultipleCurrencyAmount {
	out := m.clone()
	for ccy := range out.amounts {
		out.amounts[ccy] *= factor
	}
	return out
}

// Currencies returns the currencies present, sorted.
func (m MultipleCurrencyAmount) Currencies() []Currency {
	out := make([]Currency, 0, len(m.amounts))
	for ccy := range m.amounts {
		out = append(out, ccy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Amounts returns the amounts sorted by currency.
func (m MultipleCurrencyAmount) Amounts() []Amount {
	ccys := m.Currencies()
	out := make([]Amount, len(ccys))
	for i, ccy := range ccys {
		out[i] = Amount{Currency: ccy, Value: m.amounts[ccy]}
	}
	return out
}

// Len returns the number of currencies.
func (m MultipleCurrencyAmount) Len() int {
	return len(m.amounts)
}

func (m MultipleCurrencyAmount) String() string {
	parts := make([]string, 0, len(m.amounts))
	for _, a := range m.Amounts() {
		parts = append(parts, a.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (m MultipleCurrencyAmount) clone() MultipleCurrencyAmount {
	out := MultipleCurrencyAmount{amounts: make(map[Currency]float64, len(m.amounts)+1)}
	for ccy, v := range m.amounts {
		out.amounts[ccy] = v
	}
	return out
}

// Package market holds the Bundle of curves, FX rates and FX volatilities
// against which instruments are priced.
package market

import (
	"errors"
	"fmt"
	"sort"

	"github.com/meenmo/mocurve/curve"
	"github.com/meenmo/mocurve/money"
)

var (
	ErrCurveNotFound      = errors.New("curve not found")
	ErrFXRateNotFound     = errors.New("fx rate not found")
	ErrVolatilityNotFound = errors.New("volatility not found")
)

// Bundle is read-only once built. Every With method returns a new Bundle.
type Bundle struct {
	discounting map[money.Currency]*curve.YieldCurve
	forward     map[string]*curve.YieldCurve
	priceIndex  map[string]*curve.PriceIndexCurve
	fx          map[Pair]float64
	fxVol       map[Pair]float64
}

// New returns an empty bundle.
func New() *Bundle {
	return &Bundle{
		discounting: map[money.Currency]*curve.YieldCurve{},
		forward:     map[string]*curve.YieldCurve{},
		priceIndex:  map[string]*curve.PriceIndexCurve{},
		fx:          map[Pair]float64{},
		fxVol:       map[Pair]float64{},
	}
}

// Copy returns a shallow copy; curves themselves are immutable and shared.
func (b *Bundle) Copy() *Bundle {
	out := New()
	if b == nil {
		return out
	}
	for k, v := range b.discounting {
		out.discounting[k] = v
	}
	for k, v := range b.forward {
		out.forward[k] = v
	}
	for k, v := range b.priceIndex {
		out.priceIndex[k] = v
	}
	for k, v := range b.fx {
		out.fx[k] = v
	}
	for k, v := range b.fxVol {
		out.fxVol[k] = v
	}
	return out
}

func (b *Bundle) WithDiscountCurve(ccy money.Currency, c *curve.YieldCurve) *Bundle {
	out := b.Copy()
	out.discounting[ccy] = c
	return out
}

func (b *Bundle) WithForwardCurve(index string, c *curve.YieldCurve) *Bundle {
	out := b.Copy()
	out.forward[index] = c
	return out
}

func (b *Bundle) WithPriceIndexCurve(index string, c *curve.PriceIndexCurve) *Bundle {
	out := b.Copy()
	out.priceIndex[index] = c
	return out
}

// WithFXRate sets the number of units of pair.Quote per unit of pair.Base.
func (b *Bundle) WithFXRate(pair Pair, rate float64) *Bundle {
	out := b.Copy()
	delete(out.fx, pair.Inverse())
	out.fx[pair] = rate
	return out
}

// WithFXVolatility sets a flat Black volatility for the pair (either orientation).
func (b *Bundle) WithFXVolatility(pair Pair, vol float64) *Bundle {
	out := b.Copy()
	delete(out.fxVol, pair.Inverse())
	out.fxVol[pair] = vol
	return out
}

// Merge returns a bundle with every entry of b overridden by the entries of other.
func (b *Bundle) Merge(other *Bundle) *Bundle {
	out := b.Copy()
	if other == nil {
		return out
	}
	for k, v := range other.discounting {
		out.discounting[k] = v
	}
	for k, v := range other.forward {
		out.forward[k] = v
	}
	for k, v := range other.priceIndex {
		out.priceIndex[k] = v
	}
	for k, v := range other.fx {
		delete(out.fx, k.Inverse())
		out.fx[k] = v
	}
	for k, v := range other.fxVol {
		delete(out.fxVol, k.Inverse())
		out.fxVol[k] = v
	}
	return out
}

func (b *Bundle) DiscountCurve(ccy money.Currency) (*curve.YieldCurve, error) {
	c, ok := b.discounting[ccy]
	if !ok {
		return nil, fmt.Errorf("DiscountCurve: %w: %s", ErrCurveNotFound, ccy)
	}
	return c, nil
}

// DiscountFactor returns the discount factor of ccy at t.
func (b *Bundle) DiscountFactor(ccy money.Currency, t float64) (float64, error) {
	c, err := b.DiscountCurve(ccy)
	if err != nil {
		return 0, err
	}
	return c.DiscountFactor(t), nil
}

func (b *Bundle) ForwardCurve(index string) (*curve.YieldCurve, error) {
	c, ok := b.forward[index]
	if !ok {
		return nil, fmt.Errorf("ForwardCurve: %w: %s", ErrCurveNotFound, index)
	}
	return c, nil
}

func (b *Bundle) PriceIndexCurve(index string) (*curve.PriceIndexCurve, error) {
	c, ok := b.priceIndex[index]
	if !ok {
		return nil, fmt.Errorf("PriceIndexCurve: %w: %s", ErrCurveNotFound, index)
	}
	return c, nil
}

// CurveByName finds a curve of any kind by its name.
func (b *Bundle) CurveByName(name string) (curve.Nodal, error) {
	for _, c := range b.discounting {
		if c.Name() == name {
			return c, nil
		}
	}
	for _, c := range b.forward {
		if c.Name() == name {
			return c, nil
		}
	}
	for _, c := range b.priceIndex {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("CurveByName: %w: %s", ErrCurveNotFound, name)
}

// CurveNames returns the distinct curve names, sorted.
func (b *Bundle) CurveNames() []string {
	seen := map[string]struct{}{}
	for _, c := range b.discounting {
		seen[c.Name()] = struct{}{}
	}
	for _, c := range b.forward {
		seen[c.Name()] = struct{}{}
	}
	for _, c := range b.priceIndex {
		seen[c.Name()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// WithCurveValues replaces every reference to the named curve by a copy with new node values.
func (b *Bundle) WithCurveValues(name string, values []float64) (*Bundle, error) {
	out := b.Copy()
	found := false
	var yc *curve.YieldCurve
	for k, c := range out.discounting {
		if c.Name() != name {
			continue
		}
		if yc == nil {
			nc, err := c.WithValues(values)
			if err != nil {
				return nil, fmt.Errorf("WithCurveValues: %w", err)
			}
			yc = nc
		}
		out.discounting[k] = yc
		found = true
	}
	for k, c := range out.forward {
		if c.Name() != name {
			continue
		}
		if yc == nil {
			nc, err := c.WithValues(values)
			if err != nil {
				return nil, fmt.Errorf("WithCurveValues: %w", err)
			}
			yc = nc
		}
		out.forward[k] = yc
		found = true
	}
	for k, c := range out.priceIndex {
		if c.Name() != name {
			continue
		}
		nc, err := c.WithValues(values)
		if err != nil {
			return nil, fmt.Errorf("WithCurveValues: %w", err)
		}
		out.priceIndex[k] = nc
		found = true
	}
	if !found {
		return nil, fmt.Errorf("WithCurveValues: %w: %s", ErrCurveNotFound, name)
	}
	return out, nil
}

// CurveValues returns the node values of the named curve.
func (b *Bundle) CurveValues(name string) ([]float64, error) {
	c, err := b.CurveByName(name)
	if err != nil {
		return nil, err
	}
	switch v := c.(type) {
	case *curve.YieldCurve:
		return v.Values(), nil
	case *curve.PriceIndexCurve:
		return v.Values(), nil
	}
	return nil, fmt.Errorf("CurveValues: %w: %s", ErrCurveNotFound, name)
}

package instrument

import (
	"fmt"
	"math"

	"github.com/meenmo/mocurve/money"
)

// ForexForward exchanges Amount1 of Currency1 against Amount2 of Currency2 at PaymentTime.
// The amounts have opposite signs.
type ForexForward struct {
	Currency1   money.Currency
	Amount1     float64
	Currency2   money.Currency
	Amount2     float64
	PaymentTime float64
}

// Strike is the exchange rate implied by the amounts (Currency2 per Currency1).
func (f *ForexForward) Strike() float64 {
	return -f.Amount2 / f.Amount1
}

// ForexOptionVanilla is a European option on a ForexForward; Currency2 is the domestic currency.
type ForexOptionVanilla struct {
	Underlying *ForexForward
	ExpiryTime float64
	IsCall     bool
	IsLong     bool
}

// BarrierType names the four single-barrier variants.
type BarrierType int

const (
	DownAndIn BarrierType = iota + 1
	DownAndOut
	UpAndIn
	UpAndOut
)

func (b BarrierType) IsDown() bool { return b == DownAndIn || b == DownAndOut }
func (b BarrierType) IsIn() bool   { return b == DownAndIn || b == UpAndIn }

// ForexOptionSingleBarrier is a vanilla option that is knocked in or out when spot touches Level.
type ForexOptionSingleBarrier struct {
	Underlying *ForexOptionVanilla
	Barrier    BarrierType
	Level      float64
}

// ForexOptionDigital pays |Amount2| of the domestic currency if the option ends in the money.
type ForexOptionDigital struct {
	Underlying *ForexForward
	ExpiryTime float64
	IsCall     bool
	IsLong     bool
}

// ForexNonDeliverableForward settles in Currency2 the difference between ExchangeRate and the
// Currency1 per Currency2 rate observed at FixingTime, on Notional units of Currency2.
type ForexNonDeliverableForward struct {
	Currency1    money.Currency
	Currency2    money.Currency
	Notional     float64
	ExchangeRate float64
	FixingTime   float64
	PaymentTime  float64
}

// ForexNonDeliverableOption is an option on a non-deliverable forward.
type ForexNonDeliverableOption struct {
	Underlying *ForexNonDeliverableForward
	ExpiryTime float64
	IsCall     bool
	IsLong     bool
}

// EquivalentVanilla returns the deliverable option with the same payoff in Currency2.
func (o *ForexNonDeliverableOption) EquivalentVanilla() (*ForexOptionVanilla, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	ndf := o.Underlying
	return &ForexOptionVanilla{
		Underlying: &ForexForward{
			Currency1:   ndf.Currency1,
			Amount1:     -ndf.Notional * ndf.ExchangeRate,
			Currency2:   ndf.Currency2,
			Amount2:     ndf.Notional,
			PaymentTime: ndf.PaymentTime,
		},
		ExpiryTime: o.ExpiryTime,
		IsCall:     o.IsCall,
		IsLong:     o.IsLong,
	}, nil
}

// Notional returns |Amount1|, the foreign notional of the option.
func (o *ForexOptionVanilla) Notional() float64 {
	if o.Underlying == nil {
		return 0
	}
	return math.Abs(o.Underlying.Amount1)
}

// validateStrike checks the amounts define a positive exchange rate.
func (f *ForexForward) validateStrike(op string) error {
	if f == nil {
		return fmt.Errorf("%s: %w: nil underlying forward", op, ErrInvalidInstrument)
	}
	if f.Amount1 == 0 {
		return fmt.Errorf("%s: %w: zero foreign amount", op, ErrInvalidInstrument)
	}
	if k := f.Strike(); !(k > 0) || math.IsInf(k, 0) {
		return fmt.Errorf("%s: %w: strike %v", op, ErrInvalidInstrument, k)
	}
	return nil
}

// Validate checks the option has an underlying with a usable strike.
func (o *ForexOptionVanilla) Validate() error {
	return o.Underlying.validateStrike("ForexOptionVanilla")
}

// Validate checks the barrier level and the underlying vanilla.
func (o *ForexOptionSingleBarrier) Validate() error {
	if o.Underlying == nil {
		return fmt.Errorf("ForexOptionSingleBarrier: %w: nil underlying option", ErrInvalidInstrument)
	}
	if err := o.Underlying.Validate(); err != nil {
		return err
	}
	if !(o.Level > 0) {
		return fmt.Errorf("ForexOptionSingleBarrier: %w: barrier level %v", ErrInvalidInstrument, o.Level)
	}
	return nil
}

func (o *ForexOptionDigital) Validate() error {
	return o.Underlying.validateStrike("ForexOptionDigital")
}

// Validate checks the underlying NDF has a notional and a positive rate.
func (o *ForexNonDeliverableOption) Validate() error {
	ndf := o.Underlying
	if ndf == nil {
		return fmt.Errorf("ForexNonDeliverableOption: %w: nil underlying forward", ErrInvalidInstrument)
	}
	if ndf.Notional == 0 || !(ndf.ExchangeRate > 0) {
		return fmt.Errorf("ForexNonDeliverableOption: %w: notional %v, exchange rate %v", ErrInvalidInstrument, ndf.Notional, ndf.ExchangeRate)
	}
	return nil
}

func (f *ForexForward) Kind() Kind               { return KindForexForward }
func (o *ForexOptionVanilla) Kind() Kind         { return KindForexOptionVanilla }
func (o *ForexOptionSingleBarrier) Kind() Kind   { return KindForexOptionSingleBarrier }
func (o *ForexOptionDigital) Kind() Kind         { return KindForexOptionDigital }
func (f *ForexNonDeliverableForward) Kind() Kind { return KindForexNonDeliverableForward }
func (o *ForexNonDeliverableOption) Kind() Kind  { return KindForexNonDeliverableOption }

func (f *ForexForward) Currency() money.Currency               { return f.Currency2 }
func (f *ForexNonDeliverableForward) Currency() money.Currency { return f.Currency2 }

// The option currencies are empty while the underlying is missing; Validate reports it.

func (o *ForexOptionVanilla) Currency() money.Currency {
	if o.Underlying == nil {
		return ""
	}
	return o.Underlying.Currency2
}

func (o *ForexOptionSingleBarrier) Currency() money.Currency {
	if o.Underlying == nil {
		return ""
	}
	return o.Underlying.Currency()
}

func (o *ForexOptionDigital) Currency() money.Currency {
	if o.Underlying == nil {
		return ""
	}
	return o.Underlying.Currency2
}

func (o *ForexNonDeliverableOption) Currency() money.Currency {
	if o.Underlying == nil {
		return ""
	}
	return o.Underlying.Currency2
}

func (*ForexForward) sealed()               {}
func (*ForexOptionVanilla) sealed()         {}
func (*ForexOptionSingleBarrier) sealed()   {}
func (*ForexOptionDigital) sealed()         {}
func (*ForexNonDeliverableForward) sealed() {}
func (*ForexNonDeliverableOption) sealed()  {}

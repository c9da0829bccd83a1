package credit

// Quote is a CDS market quote in one of the three conventions. Spreads and
// coupons are fractions, so 1bp is 1e-4.
type Quote interface {
	// Coupon is the running premium the quote refers to.
	Coupon() float64
	quote()
}

// ParSpread quotes the coupon at which the CDS is worth zero.
type ParSpread struct {
	Spread float64
}

// QuotedSpread is the flat spread equivalent of an upfront on a standard premium.
type QuotedSpread struct {
	Premium float64
	Spread  float64
}

// PointsUpFront is the clean upfront price, as a fraction of notional, for a standard premium.
type PointsUpFront struct {
	Premium float64
	Value   float64
}

func (q ParSpread) Coupon() float64     { return q.Spread }
func (q QuotedSpread) Coupon() float64  { return q.Premium }
func (q PointsUpFront) Coupon() float64 { return q.Premium }

func (ParSpread) quote()     {}
func (QuotedSpread) quote()  {}
func (PointsUpFront) quote() {}

// Package credit bootstraps hazard curves from CDS quotes and computes spread
// sensitivities by bump and reprice.
package credit

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/mocurve/calendar"
	"github.com/meenmo/mocurve/utils"
)

var (
	ErrInvalidCDS              = errors.New("invalid cds")
	ErrLengthMismatch          = errors.New("length mismatch")
	ErrUnsortedPillars         = errors.New("pillar maturities must be increasing")
	ErrBumpTooSmall            = errors.New("bump amount too small")
	ErrUnknownQuote            = errors.New("unknown quote convention")
	ErrUnknownBumpType         = errors.New("unknown bump type")
	ErrUnknownFiniteDifference = errors.New("unknown finite difference type")
	ErrInvalidSpread           = errors.New("invalid spread")
)

// CouponPeriod is one premium period. Times are in years from the trade date.
type CouponPeriod struct {
	AccrualStart float64
	AccrualEnd   float64
	PaymentTime  float64
	// YearFraction is the accrual fraction of the premium, usually ACT/360.
	YearFraction float64
}

// CDS is the analytic description of a credit default swap seen from its trade date.
// All values are per unit notional.
type CDS struct {
	// ProtectionStart is the step-in time, ProtectionEnd the maturity.
	ProtectionStart float64
	ProtectionEnd   float64
	// ValuationTime is the cash settlement time; present values are expressed there.
	ValuationTime       float64
	Recovery            float64
	PayAccruedOnDefault bool
	Coupons             []CouponPeriod
	// AccruedYearFraction is the premium accrued at step-in, paid back by the protection seller.
	AccruedYearFraction float64
}

// LGD is the loss given default.
func (c *CDS) LGD() float64 { return 1 - c.Recovery }

// Maturity is the end of protection.
func (c *CDS) Maturity() float64 { return c.ProtectionEnd }

func (c *CDS) validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil cds", ErrInvalidCDS)
	}
	if c.Recovery < 0 || c.Recovery >= 1 {
		return fmt.Errorf("%w: recovery %g outside [0, 1)", ErrInvalidCDS, c.Recovery)
	}
	if c.ProtectionEnd <= c.ProtectionStart || c.ProtectionStart < 0 {
		return fmt.Errorf("%w: protection [%g, %g]", ErrInvalidCDS, c.ProtectionStart, c.ProtectionEnd)
	}
	if len(c.Coupons) == 0 {
		return fmt.Errorf("%w: no premium periods", ErrInvalidCDS)
	}
	return nil
}

// Terms are the dated terms of a standard CDS.
type Terms struct {
	TradeDate time.Time
	// AccrualStart defaults to the last IMM date on or before the step-in date.
	AccrualStart time.Time
	Maturity     time.Time
	Calendar     calendar.CalendarID
	// PaymentMonths defaults to 3.
	PaymentMonths int
	// DayCount of the premium, ACT/360 by default.
	DayCount            utils.DayCount
	Recovery            float64
	PayAccruedOnDefault bool
	// CashSettleDays defaults to 3 business days.
	CashSettleDays int
}

// StandardMaturity rolls the trade date to the next IMM date and adds months.
func StandardMaturity(trade time.Time, months int) time.Time {
	return utils.AddMonth(calendar.NextIMMDate(trade), months)
}

func previousIMMDate(t time.Time) time.Time {
	prev := calendar.NextIMMDate(t.AddDate(0, -4, 0))
	for {
		next := calendar.NextIMMDate(prev)
		if next.After(t) {
			return prev
		}
		prev = next
	}
}

// NewCDS builds the time-based description from dated terms. The schedule is
// rolled backward from maturity; payment dates follow the calendar and the last
// period accrues through the maturity date.
func NewCDS(terms Terms) (*CDS, error) {
	if terms.TradeDate.IsZero() || terms.Maturity.IsZero() {
		return nil, fmt.Errorf("NewCDS: %w: trade date and maturity are required", ErrInvalidCDS)
	}
	months := terms.PaymentMonths
	if months == 0 {
		months = 3
	}
	if months < 0 {
		return nil, fmt.Errorf("NewCDS: %w: payment interval %d months", ErrInvalidCDS, months)
	}
	dc := terms.DayCount
	if dc == "" {
		dc = utils.Act360
	}
	settleDays := terms.CashSettleDays
	if settleDays == 0 {
		settleDays = 3
	}

	trade := terms.TradeDate
	stepin := trade.AddDate(0, 0, 1)
	if !terms.Maturity.After(stepin) {
		return nil, fmt.Errorf("NewCDS: %w: maturity %s not after step-in %s", ErrInvalidCDS,
			terms.Maturity.Format("2006-01-02"), stepin.Format("2006-01-02"))
	}
	start := terms.AccrualStart
	if start.IsZero() {
		start = calendar.AdjustFollowing(terms.Calendar, previousIMMDate(stepin))
		if start.After(stepin) {
			start = calendar.AdjustFollowing(terms.Calendar, previousIMMDate(stepin.AddDate(0, 0, -7)))
		}
	}
	if !start.Before(terms.Maturity) {
		return nil, fmt.Errorf("NewCDS: %w: accrual start not before maturity", ErrInvalidCDS)
	}

	// Unadjusted roll dates, backward from maturity.
	var rolls []time.Time
	for k := 0; ; k++ {
		d := utils.AddMonth(terms.Maturity, -k*months)
		if !d.After(start) {
			break
		}
		rolls = append(rolls, d)
	}
	rolls = append(rolls, start)
	for i, j := 0, len(rolls)-1; i < j; i, j = i+1, j-1 {
		rolls[i], rolls[j] = rolls[j], rolls[i]
	}

	toTime := func(d time.Time) float64 { return utils.YearFraction(trade, d, utils.Act365F) }
	cds := &CDS{
		ProtectionStart:     toTime(stepin),
		ProtectionEnd:       toTime(terms.Maturity),
		ValuationTime:       toTime(calendar.AddBusinessDays(terms.Calendar, trade, settleDays)),
		Recovery:            terms.Recovery,
		PayAccruedOnDefault: terms.PayAccruedOnDefault,
	}
	accStart := rolls[0]
	for i := 1; i < len(rolls); i++ {
		last := i == len(rolls)-1
		accEnd := calendar.AdjustFollowing(terms.Calendar, rolls[i])
		pay := accEnd
		yfEnd := accEnd
		if last {
			accEnd = terms.Maturity
			yfEnd = terms.Maturity.AddDate(0, 0, 1)
		}
		if accEnd.After(stepin) {
			cds.Coupons = append(cds.Coupons, CouponPeriod{
				AccrualStart: toTime(accStart),
				AccrualEnd:   toTime(accEnd),
				PaymentTime:  toTime(pay),
				YearFraction: utils.YearFraction(accStart, yfEnd, dc),
			})
			if !accStart.After(stepin) {
				cds.AccruedYearFraction = utils.YearFraction(accStart, stepin, dc)
			}
		}
		accStart = accEnd
	}
	if err := cds.validate(); err != nil {
		return nil, fmt.Errorf("NewCDS: %w", err)
	}
	return cds, nil
}

// NewSimpleCDS describes a CDS starting now with premium periods of length interval
// rolled backward from maturity and ACT/360-style year fractions.
func NewSimpleCDS(maturity, recovery, interval float64, payAccruedOnDefault bool) (*CDS, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("NewSimpleCDS: %w: interval %g", ErrInvalidCDS, interval)
	}
	var ends []float64
	for t := maturity; t > 1e-10; t -= interval {
		ends = append(ends, t)
	}
	cds := &CDS{
		ProtectionEnd:       maturity,
		Recovery:            recovery,
		PayAccruedOnDefault: payAccruedOnDefault,
	}
	prev := 0.0
	for i := len(ends) - 1; i >= 0; i-- {
		cds.Coupons = append(cds.Coupons, CouponPeriod{
			AccrualStart: prev,
			AccrualEnd:   ends[i],
			PaymentTime:  ends[i],
			YearFraction: (ends[i] - prev) * 365 / 360,
		})
		prev = ends[i]
	}
	if err := cds.validate(); err != nil {
		return nil, fmt.Errorf("NewSimpleCDS: %w", err)
	}
	return cds, nil
}

package cs01

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/meenmo/mocurve/calendar"
	"github.com/meenmo/mocurve/cmd/calibrate/internal/cli"
	"github.com/meenmo/mocurve/config"
	"github.com/meenmo/mocurve/credit"
	"github.com/meenmo/mocurve/curve"
	"github.com/meenmo/mocurve/interp"
	"github.com/meenmo/mocurve/utils"
)

// Input defines the JSON input schema for CDS spread risk.
//
// Conventions:
// - spreads and coupons are in bp, zero rates in percent
// - maturities are standard: next IMM date after trade plus tenor_months
// - CS01 is the change in dirty value for a 1bp move, times notional
type Input struct {
	TradeDate string  `json:"trade_date"` // "2024-06-13"
	Calendar  string  `json:"calendar"`   // optional, defaults to WEEKENDS
	Notional  float64 `json:"notional"`   // optional, defaults to 1
	Recovery  float64 `json:"recovery"`   // e.g. 0.4

	CouponBP    float64 `json:"coupon_bp"`
	TenorMonths int     `json:"tenor_months"`
	// MaturityDate overrides tenor_months when set.
	MaturityDate string `json:"maturity_date"`

	Pillars  []Pillar `json:"pillars"`
	Discount Discount `json:"discount"`

	// BumpBP defaults to 1. A multiplicative bump moves every spread by
	// bump_bp/10000 of itself.
	BumpBP   float64 `json:"bump_bp"`
	BumpType string  `json:"bump_type"` // "additive" (default) or "multiplicative"
}

// Pillar is a par spread quote at a standard maturity.
type Pillar struct {
	TenorMonths int     `json:"tenor_months"`
	ParSpreadBP float64 `json:"par_spread_bp"`
}

// Discount is a zero curve in ACT/365F years from the trade date.
type Discount struct {
	Tenors       []string  `json:"tenors"`
	ZeroRatesPct []float64 `json:"zero_rates"`
	Interpolator string    `json:"interpolator"`
}

type Bucket struct {
	TenorMonths  int             `json:"tenor_months"`
	MaturityDate string          `json:"maturity_date"`
	CS01         decimal.Decimal `json:"cs01"`
}

type Output struct {
	MaturityDate string          `json:"maturity_date,omitempty"`
	ParSpreadBP  decimal.Decimal `json:"par_spread_bp"`
	CleanPV      decimal.Decimal `json:"clean_pv"`
	ParallelCS01 decimal.Decimal `json:"parallel_cs01"`
	Bucketed     []Bucket        `json:"bucketed_cs01,omitempty"`
	Error        string          `json:"error,omitempty"`
}

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, code, ok := cli.Parse("cs01", args, stderr, usage)
	if !ok {
		return code
	}
	if opts.Input == "" && cli.Interactive(stdin) {
		usage(stderr)
		return 2
	}

	var input Input
	if err := cli.Decode(stdin, opts.Input, &input); err != nil {
		return writeError(stdout, err.Error())
	}
	cfg, err := cli.Config(opts)
	if err != nil {
		return writeError(stdout, err.Error())
	}
	logger := cli.Logger(stderr, opts.Verbose)
	defer logger.Sync() //nolint:errcheck

	output, err := calculate(input, cfg, logger)
	if err != nil {
		return writeError(stdout, err.Error())
	}
	cli.Write(stdout, output)
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  calibrate cs01 < input.json")
	fmt.Fprintln(w, "  calibrate cs01 -input /path/to/input.json [-config solver.yaml] [-v]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Read CDS terms and par spread pillars, bootstrap the hazard curve,")
	fmt.Fprintln(w, "output parallel and bucketed CS01 as JSON.")
}

func writeError(stdout io.Writer, msg string) int {
	cli.Write(stdout, Output{Error: msg})
	return 1
}

func calculate(input Input, cfg config.Config, logger *zap.Logger) (*Output, error) {
	trade, err := utils.ParseDate(input.TradeDate)
	if err != nil {
		return nil, fmt.Errorf("invalid trade_date: %v", err)
	}
	cal := calendar.CalendarID(strings.ToUpper(strings.TrimSpace(input.Calendar)))
	if cal == "" {
		cal = calendar.WeekendsOnly
	}
	notional := input.Notional
	if notional == 0 {
		notional = 1
	}
	bump := input.BumpBP
	if bump == 0 {
		bump = 1
	}
	bumpType, err := parseBumpType(input.BumpType)
	if err != nil {
		return nil, err
	}
	if len(input.Pillars) == 0 {
		return nil, fmt.Errorf("pillars is required")
	}

	maturity := trade
	switch {
	case strings.TrimSpace(input.MaturityDate) != "":
		maturity, err = utils.ParseDate(input.MaturityDate)
		if err != nil {
			return nil, fmt.Errorf("invalid maturity_date: %v", err)
		}
	case input.TenorMonths > 0:
		maturity = credit.StandardMaturity(trade, input.TenorMonths)
	default:
		return nil, fmt.Errorf("tenor_months or maturity_date is required")
	}
	terms := func(m time.Time) credit.Terms {
		return credit.Terms{
			TradeDate:           trade,
			Maturity:            m,
			Calendar:            cal,
			Recovery:            input.Recovery,
			PayAccruedOnDefault: true,
		}
	}
	cds, err := credit.NewCDS(terms(maturity))
	if err != nil {
		return nil, err
	}

	pillars := make([]*credit.CDS, len(input.Pillars))
	spreads := make([]float64, len(input.Pillars))
	buckets := make([]Bucket, len(input.Pillars))
	for i, p := range input.Pillars {
		if p.TenorMonths <= 0 {
			return nil, fmt.Errorf("pillar %d: tenor_months must be positive", i)
		}
		m := credit.StandardMaturity(trade, p.TenorMonths)
		if pillars[i], err = credit.NewCDS(terms(m)); err != nil {
			return nil, fmt.Errorf("pillar %d: %w", i, err)
		}
		spreads[i] = p.ParSpreadBP / 1e4
		buckets[i] = Bucket{TenorMonths: p.TenorMonths, MaturityDate: m.Format("2006-01-02")}
	}

	yc, err := discountCurve(input.Discount)
	if err != nil {
		return nil, err
	}

	coupon := input.CouponBP / 1e4
	hc, err := credit.NewCurveBuilder(cfg.Credit).CalibrateParSpreads(pillars, spreads, yc)
	if err != nil {
		return nil, err
	}
	var pricer credit.Pricer
	par, err := pricer.ParSpread(cds, yc, hc)
	if err != nil {
		return nil, err
	}
	pv, err := pricer.PV(cds, yc, hc, coupon, credit.Clean)
	if err != nil {
		return nil, err
	}

	calc := credit.NewSpreadSensitivityCalculator(credit.WithConfig(cfg), credit.WithLogger(logger))
	parallel, err := calc.ParallelCS01FromParSpreads(cds, coupon, yc, pillars, spreads, bump/1e4, bumpType)
	if err != nil {
		return nil, err
	}
	bucketed, err := calc.BucketedCS01FromParSpreads(cds, coupon, yc, pillars, spreads, bump/1e4, bumpType)
	if err != nil {
		return nil, err
	}

	scale := notional * 1e-4
	for i := range buckets {
		buckets[i].CS01 = cli.Round(bucketed[i]*scale, 8)
	}
	logger.Debug("cs01 computed",
		zap.String("maturity", maturity.Format("2006-01-02")),
		zap.Float64("parSpread", par),
		zap.Stringer("bumpType", bumpType))

	return &Output{
		MaturityDate: maturity.Format("2006-01-02"),
		ParSpreadBP:  cli.Round(par*1e4, 6),
		CleanPV:      cli.Round(pv*notional, 8),
		ParallelCS01: cli.Round(parallel*scale, 8),
		Bucketed:     buckets,
	}, nil
}

func parseBumpType(s string) (credit.BumpType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "additive":
		return credit.Additive, nil
	case "multiplicative":
		return credit.Multiplicative, nil
	default:
		return 0, fmt.Errorf("invalid bump_type %q (additive or multiplicative)", s)
	}
}

func discountCurve(d Discount) (*curve.YieldCurve, error) {
	if len(d.Tenors) == 0 {
		return nil, fmt.Errorf("discount.tenors is required")
	}
	if len(d.Tenors) != len(d.ZeroRatesPct) {
		return nil, fmt.Errorf("discount: %d tenors and %d zero rates", len(d.Tenors), len(d.ZeroRatesPct))
	}
	times := make([]float64, len(d.Tenors))
	rates := make([]float64, len(d.Tenors))
	for i, tenor := range d.Tenors {
		t, err := curve.ParseTenor(tenor)
		if err != nil {
			return nil, err
		}
		times[i] = t
		rates[i] = d.ZeroRatesPct[i] / 100
	}
	interpolator, err := interp.Named(strings.ToLower(strings.TrimSpace(d.Interpolator)))
	if err != nil {
		return nil, err
	}
	return curve.NewYieldCurve("discount", times, rates, interpolator)
}

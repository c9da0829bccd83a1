package curve

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/meenmo/mocurve/calendar"
	"github.com/meenmo/mocurve/calibration"
	"github.com/meenmo/mocurve/cmd/calibrate/internal/cli"
	"github.com/meenmo/mocurve/config"
	"github.com/meenmo/mocurve/instrument"
	"github.com/meenmo/mocurve/interp"
	"github.com/meenmo/mocurve/money"
	"github.com/meenmo/mocurve/utils"
)

// Input defines the JSON input schema for a deposit curve.
//
// Conventions:
// - rates are in percent (e.g., 4.30 means 4.30%)
// - deposits start on the curve date; maturities roll modified following
type Input struct {
	CurveDate    string `json:"curve_date"` // "2025-12-15"
	Currency     string `json:"currency"`   // "USD"
	Calendar     string `json:"calendar"`   // optional, defaults to WEEKENDS
	DayCount     string `json:"day_count"`  // optional, defaults to ACT/360
	Interpolator string `json:"interpolator"`

	// Indexes are forwarded on the calibrated curve.
	Indexes []string `json:"indexes"`

	// DepositsPct maps a tenor ("1W", "3M", "1Y") to a simple deposit rate.
	DepositsPct map[string]float64 `json:"deposits"`
}

type Node struct {
	Tenor          string          `json:"tenor"`
	MaturityDate   string          `json:"maturity_date"`
	Time           decimal.Decimal `json:"time"`
	ZeroRatePct    decimal.Decimal `json:"zero_rate"`
	DiscountFactor decimal.Decimal `json:"discount_factor"`
}

type Output struct {
	Curve string `json:"curve,omitempty"`
	Nodes []Node `json:"nodes,omitempty"`
	Error string `json:"error,omitempty"`
}

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, code, ok := cli.Parse("curve", args, stderr, usage)
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

	output, err := calibrate(input, cfg, logger)
	if err != nil {
		return writeError(stdout, err.Error())
	}
	cli.Write(stdout, output)
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  calibrate curve < input.json")
	fmt.Fprintln(w, "  calibrate curve -input /path/to/input.json [-config solver.yaml] [-v]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Read deposit quotes, calibrate the discounting curve, output its nodes as JSON.")
}

func writeError(stdout io.Writer, msg string) int {
	cli.Write(stdout, Output{Error: msg})
	return 1
}

type deposit struct {
	tenor    string
	maturity time.Time
	rate     float64
}

func calibrate(input Input, cfg config.Config, logger *zap.Logger) (*Output, error) {
	curveDate, err := utils.ParseDate(input.CurveDate)
	if err != nil {
		return nil, fmt.Errorf("invalid curve_date: %v", err)
	}
	ccy := money.Currency(strings.ToUpper(strings.TrimSpace(input.Currency)))
	if ccy == "" {
		return nil, fmt.Errorf("currency is required")
	}
	if len(input.DepositsPct) == 0 {
		return nil, fmt.Errorf("deposits is required")
	}
	cal := calendar.CalendarID(strings.ToUpper(strings.TrimSpace(input.Calendar)))
	if cal == "" {
		cal = calendar.WeekendsOnly
	}
	dc := utils.DayCount(strings.ToUpper(strings.TrimSpace(input.DayCount)))
	if dc == "" {
		dc = utils.Act360
	}
	interpolator, err := interp.Named(strings.ToLower(strings.TrimSpace(input.Interpolator)))
	if err != nil {
		return nil, err
	}

	deposits := make([]deposit, 0, len(input.DepositsPct))
	for tenor, pct := range input.DepositsPct {
		maturity, err := tenorDate(cal, curveDate, tenor)
		if err != nil {
			return nil, err
		}
		deposits = append(deposits, deposit{tenor: strings.ToUpper(strings.TrimSpace(tenor)), maturity: maturity, rate: pct / 100})
	}
	sort.Slice(deposits, func(i, j int) bool { return deposits[i].maturity.Before(deposits[j].maturity) })
	for i := 1; i < len(deposits); i++ {
		if !deposits[i].maturity.After(deposits[i-1].maturity) {
			return nil, fmt.Errorf("tenors %s and %s mature on the same date", deposits[i-1].tenor, deposits[i].tenor)
		}
	}

	instruments := make([]instrument.Instrument, len(deposits))
	for i, d := range deposits {
		instruments[i] = &instrument.Deposit{
			Ccy:           ccy,
			EndTime:       utils.YearFraction(curveDate, d.maturity, utils.Act365F),
			AccrualFactor: utils.YearFraction(curveDate, d.maturity, dc),
			Rate:          d.rate,
			Notional:      1,
		}
	}

	builder := calibration.NewBuilder(calibration.WithConfig(cfg), calibration.WithLogger(logger))
	bundle, err := builder.Discounting(instruments, nil, ccy, input.Indexes, interpolator)
	if err != nil {
		return nil, err
	}
	yc, err := bundle.DiscountCurve(ccy)
	if err != nil {
		return nil, err
	}

	times, rates := yc.Times(), yc.Values()
	out := &Output{Curve: yc.Name(), Nodes: make([]Node, len(times))}
	for i, t := range times {
		out.Nodes[i] = Node{
			Tenor:          deposits[i].tenor,
			MaturityDate:   deposits[i].maturity.Format("2006-01-02"),
			Time:           cli.Round(t, 10),
			ZeroRatePct:    cli.Round(rates[i]*100, 8),
			DiscountFactor: cli.Round(yc.DiscountFactor(t), 10),
		}
	}
	logger.Debug("curve calibrated", zap.String("curve", yc.Name()), zap.Int("nodes", len(times)))
	return out, nil
}

// tenorDate rolls "ON", "<n>D", "<n>W", "<n>M" or "<n>Y" from start, modified following.
func tenorDate(cal calendar.CalendarID, start time.Time, tenor string) (time.Time, error) {
	s := strings.ToUpper(strings.TrimSpace(tenor))
	if s == "ON" {
		return calendar.AddBusinessDays(cal, start, 1), nil
	}
	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid tenor %q", tenor)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("invalid tenor %q", tenor)
	}
	var d time.Time
	switch s[len(s)-1] {
	case 'D':
		d = start.AddDate(0, 0, n)
	case 'W':
		d = start.AddDate(0, 0, 7*n)
	case 'M':
		d = utils.AddMonth(start, n)
	case 'Y':
		d = utils.AddMonth(start, 12*n)
	default:
		return time.Time{}, fmt.Errorf("invalid tenor %q", tenor)
	}
	return calendar.Adjust(cal, d), nil
}

package credit

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meenmo/mocurve/config"
	"github.com/meenmo/mocurve/curve"
)

// BumpType says how a spread is shifted.
type BumpType int

const (
	// Additive adds the bump to the spread.
	Additive BumpType = iota
	// Multiplicative scales the spread by 1 + bump.
	Multiplicative
)

func (b BumpType) String() string {
	switch b {
	case Additive:
		return "additive"
	case Multiplicative:
		return "multiplicative"
	}
	return fmt.Sprintf("BumpType(%d)", int(b))
}

// FiniteDifferenceType is the differencing scheme of FiniteDifferenceSpreadSensitivity.
type FiniteDifferenceType int

const (
	Forward FiniteDifferenceType = iota
	Backward
	Central
)

func (f FiniteDifferenceType) String() string {
	switch f {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Central:
		return "central"
	}
	return fmt.Sprintf("FiniteDifferenceType(%d)", int(f))
}

// SpreadSensitivityCalculator computes CS01 by rebuilding the hazard curve from
// bumped market spreads and repricing. Results are (bumped PV - base PV) / bump,
// per unit notional.
type SpreadSensitivityCalculator struct {
	builder *CurveBuilder
	puf     PUFConverter
	pricer  Pricer
	minBump float64
	workers int
	logger  *zap.Logger
}

type Option func(*SpreadSensitivityCalculator)

func WithConfig(c config.Config) Option {
	return func(s *SpreadSensitivityCalculator) {
		s.builder = NewCurveBuilder(c.Credit)
		s.puf = NewPUFConverter(s.builder)
		s.minBump = c.Credit.MinBumpAmount
		s.workers = c.Workers
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *SpreadSensitivityCalculator) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewSpreadSensitivityCalculator(opts ...Option) *SpreadSensitivityCalculator {
	s := &SpreadSensitivityCalculator{logger: zap.NewNop()}
	WithConfig(config.Default)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SpreadSensitivityCalculator) checkBump(op string, bump float64) error {
	if math.Abs(bump) <= s.minBump {
		return fmt.Errorf("%s: %w: %g", op, ErrBumpTooSmall, bump)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Parallel CS01 from the CDS's own quote
// ---------------------------------------------------------------------------

// ParallelCS01 bumps the CDS's own market quote. A points upfront quote is
// converted to a quoted spread, which is bumped.
func (s *SpreadSensitivityCalculator) ParallelCS01(cds *CDS, q Quote, yc *curve.YieldCurve, bump float64) (float64, error) {
	switch q := q.(type) {
	case QuotedSpread:
		return s.ParallelCS01FromParSpreads(cds, q.Premium, yc, []*CDS{cds}, []float64{q.Spread}, bump, Additive)
	case PointsUpFront:
		return s.ParallelCS01FromPUF(cds, q.Premium, yc, q.Value, bump)
	case ParSpread:
		return s.ParallelCS01FromParSpreads(cds, q.Spread, yc, []*CDS{cds}, []float64{q.Spread}, bump, Additive)
	}
	return 0, fmt.Errorf("ParallelCS01: %w: %T", ErrUnknownQuote, q)
}

// ParallelCS01FromPUF converts puf to a quoted spread, bumps it and reprices against puf.
func (s *SpreadSensitivityCalculator) ParallelCS01FromPUF(cds *CDS, coupon float64, yc *curve.YieldCurve, puf, bump float64) (float64, error) {
	if err := s.checkBump("ParallelCS01FromPUF", bump); err != nil {
		return 0, err
	}
	qs, err := s.puf.PUFToQuotedSpread(cds, coupon, yc, puf)
	if err != nil {
		return 0, fmt.Errorf("ParallelCS01FromPUF: %w", err)
	}
	hc, err := s.builder.CalibrateFlat(cds, qs+bump, yc)
	if err != nil {
		return 0, fmt.Errorf("ParallelCS01FromPUF: %w", err)
	}
	bumped, err := s.pricer.PV(cds, yc, hc, coupon, Clean)
	if err != nil {
		return 0, fmt.Errorf("ParallelCS01FromPUF: %w", err)
	}
	return (bumped - puf) / bump, nil
}

// ParallelCS01FromSpread bumps the market spread of the CDS itself; par or quoted does not matter.
func (s *SpreadSensitivityCalculator) ParallelCS01FromSpread(cds *CDS, coupon float64, yc *curve.YieldCurve, marketSpread, bump float64, bumpType BumpType) (float64, error) {
	return s.ParallelCS01FromParSpreads(cds, coupon, yc, []*CDS{cds}, []float64{marketSpread}, bump, bumpType)
}

// ParallelCS01FromQuotedSpread builds flat curves from a reference CDS, which is often the CDS itself.
func (s *SpreadSensitivityCalculator) ParallelCS01FromQuotedSpread(cds *CDS, coupon float64, yc *curve.YieldCurve, reference *CDS, quotedSpread, bump float64, bumpType BumpType) (float64, error) {
	if reference == nil {
		return 0, fmt.Errorf("ParallelCS01FromQuotedSpread: %w: nil reference", ErrInvalidCDS)
	}
	return s.ParallelCS01FromParSpreads(cds, coupon, yc, []*CDS{reference}, []float64{quotedSpread}, bump, bumpType)
}

// ---------------------------------------------------------------------------
// Parallel CS01 from pillar quotes
// ---------------------------------------------------------------------------

// ParallelCS01FromPillarQuotes bumps every pillar quote by bump. Par and quoted
// spreads are bumped directly; points upfront go through their quoted spread.
func (s *SpreadSensitivityCalculator) ParallelCS01FromPillarQuotes(cds *CDS, coupon float64, yc *curve.YieldCurve, pillars []*CDS, quotes []Quote, bump float64) (float64, error) {
	if err := s.checkBump("ParallelCS01FromPillarQuotes", bump); err != nil {
		return 0, err
	}
	if len(pillars) != len(quotes) {
		return 0, fmt.Errorf("ParallelCS01FromPillarQuotes: %w: %d pillars, %d quotes", ErrLengthMismatch, len(pillars), len(quotes))
	}
	base, err := s.priceFromQuotes(cds, coupon, yc, pillars, quotes)
	if err != nil {
		return 0, fmt.Errorf("ParallelCS01FromPillarQuotes: %w", err)
	}
	bumpedQuotes := make([]Quote, len(quotes))
	for i := range quotes {
		if bumpedQuotes[i], err = s.bumpQuote(pillars[i], quotes[i], yc, bump); err != nil {
			return 0, fmt.Errorf("ParallelCS01FromPillarQuotes: %w", err)
		}
	}
	bumped, err := s.priceFromQuotes(cds, coupon, yc, pillars, bumpedQuotes)
	if err != nil {
		return 0, fmt.Errorf("ParallelCS01FromPillarQuotes: %w", err)
	}
	return (bumped - base) / bump, nil
}

// ParallelCS01FromParSpreads bumps every par spread, additively or multiplicatively.
func (s *SpreadSensitivityCalculator) ParallelCS01FromParSpreads(cds *CDS, coupon float64, yc *curve.YieldCurve, pillars []*CDS, spreads []float64, bump float64, bumpType BumpType) (float64, error) {
	if err := s.checkSpreads("ParallelCS01FromParSpreads", pillars, spreads, bump); err != nil {
		return 0, err
	}
	bumpedSpreads, err := bumpAll(spreads, bump, bumpType)
	if err != nil {
		return 0, fmt.Errorf("ParallelCS01FromParSpreads: %w", err)
	}
	base, err := s.priceFromSpreads(cds, coupon, yc, pillars, spreads, Dirty)
	if err != nil {
		return 0, fmt.Errorf("ParallelCS01FromParSpreads: %w", err)
	}
	up, err := s.priceFromSpreads(cds, coupon, yc, pillars, bumpedSpreads, Dirty)
	if err != nil {
		return 0, fmt.Errorf("ParallelCS01FromParSpreads: %w", err)
	}
	return (up - base) / bump, nil
}

// ---------------------------------------------------------------------------
// Bucketed CS01
// ---------------------------------------------------------------------------

// BucketedCS01FromPillarQuotes bumps one pillar quote at a time.
func (s *SpreadSensitivityCalculator) BucketedCS01FromPillarQuotes(cds *CDS, coupon float64, yc *curve.YieldCurve, pillars []*CDS, quotes []Quote, bump float64) ([]float64, error) {
	if err := s.checkBump("BucketedCS01FromPillarQuotes", bump); err != nil {
		return nil, err
	}
	if len(pillars) != len(quotes) {
		return nil, fmt.Errorf("BucketedCS01FromPillarQuotes: %w: %d pillars, %d quotes", ErrLengthMismatch, len(pillars), len(quotes))
	}
	base, err := s.priceFromQuotes(cds, coupon, yc, pillars, quotes)
	if err != nil {
		return nil, fmt.Errorf("BucketedCS01FromPillarQuotes: %w", err)
	}
	out := make([]float64, len(pillars))
	err = s.eachPillar(len(pillars), func(i int) error {
		bumpedQuotes := append([]Quote(nil), quotes...)
		q, err := s.bumpQuote(pillars[i], quotes[i], yc, bump)
		if err != nil {
			return err
		}
		bumpedQuotes[i] = q
		price, err := s.priceFromQuotes(cds, coupon, yc, pillars, bumpedQuotes)
		if err != nil {
			return err
		}
		out[i] = (price - base) / bump
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("BucketedCS01FromPillarQuotes: %w", err)
	}
	return out, nil
}

// BucketedCS01FromParSpreads bumps one par spread at a time.
func (s *SpreadSensitivityCalculator) BucketedCS01FromParSpreads(cds *CDS, coupon float64, yc *curve.YieldCurve, pillars []*CDS, spreads []float64, bump float64, bumpType BumpType) ([]float64, error) {
	if err := s.checkSpreads("BucketedCS01FromParSpreads", pillars, spreads, bump); err != nil {
		return nil, err
	}
	if _, err := bumpAt(spreads, bump, bumpType, 0); err != nil {
		return nil, fmt.Errorf("BucketedCS01FromParSpreads: %w", err)
	}
	base, err := s.priceFromSpreads(cds, coupon, yc, pillars, spreads, Dirty)
	if err != nil {
		return nil, fmt.Errorf("BucketedCS01FromParSpreads: %w", err)
	}
	out := make([]float64, len(pillars))
	err = s.eachPillar(len(pillars), func(i int) error {
		bumped, err := bumpAt(spreads, bump, bumpType, i)
		if err != nil {
			return err
		}
		price, err := s.priceFromSpreads(cds, coupon, yc, pillars, bumped, Dirty)
		if err != nil {
			return err
		}
		out[i] = (price - base) / bump
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("BucketedCS01FromParSpreads: %w", err)
	}
	return out, nil
}

// BucketedCS01FromQuotedSpreads bumps one quoted spread at a time. Every pillar
// and the CDS share the premium dealSpread; the curve is built from the
// equivalent upfronts.
func (s *SpreadSensitivityCalculator) BucketedCS01FromQuotedSpreads(cds *CDS, dealSpread float64, yc *curve.YieldCurve, pillars []*CDS, quotedSpreads []float64, bump float64, bumpType BumpType) ([]float64, error) {
	if cds == nil {
		return nil, fmt.Errorf("BucketedCS01FromQuotedSpreads: %w: nil cds", ErrInvalidCDS)
	}
	res, err := s.BucketedCS01FromQuotedSpreadsBatch([]*CDS{cds}, dealSpread, yc, pillars, quotedSpreads, bump, bumpType)
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

// BucketedCS01FromQuotedSpreadsBatch returns one row per CDS and one column per
// pillar. Each pillar bump rebuilds the curve once and reprices every CDS.
func (s *SpreadSensitivityCalculator) BucketedCS01FromQuotedSpreadsBatch(cdss []*CDS, dealSpread float64, yc *curve.YieldCurve, pillars []*CDS, quotedSpreads []float64, bump float64, bumpType BumpType) ([][]float64, error) {
	const op = "BucketedCS01FromQuotedSpreadsBatch"
	if err := s.checkSpreads(op, pillars, quotedSpreads, bump); err != nil {
		return nil, err
	}
	if len(cdss) == 0 {
		return nil, fmt.Errorf("%s: %w: no cds", op, ErrLengthMismatch)
	}
	for j, c := range cdss {
		if c == nil {
			return nil, fmt.Errorf("%s: %w: cds %d is nil", op, ErrInvalidCDS, j)
		}
	}
	n := len(pillars)
	premiums := make([]float64, n)
	for i := range premiums {
		premiums[i] = dealSpread
	}
	pufs, err := s.puf.QuotedSpreadsToPUF(pillars, premiums, yc, quotedSpreads)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	baseCurve, err := s.builder.CalibratePUF(pillars, premiums, yc, pufs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	basePrices := make([]float64, len(cdss))
	for j, c := range cdss {
		if basePrices[j], err = s.pricer.PV(c, yc, baseCurve, dealSpread, Dirty); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	out := make([][]float64, len(cdss))
	for j := range out {
		out[j] = make([]float64, n)
	}
	err = s.eachPillar(n, func(i int) error {
		bumpedSpread, err := bumpOne(quotedSpreads[i], bump, bumpType)
		if err != nil {
			return err
		}
		bumpedPUF := append([]float64(nil), pufs...)
		if bumpedPUF[i], err = s.puf.QuotedSpreadToPUF(pillars[i], premiums[i], yc, bumpedSpread); err != nil {
			return err
		}
		hc, err := s.builder.CalibratePUF(pillars, premiums, yc, bumpedPUF)
		if err != nil {
			return err
		}
		for j, c := range cdss {
			price, err := s.pricer.PV(c, yc, hc, dealSpread, Dirty)
			if err != nil {
				return err
			}
			// Each pillar writes only its own column.
			out[j][i] = (price - basePrices[j]) / bump
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Finite difference
// ---------------------------------------------------------------------------

// FiniteDifferenceSpreadSensitivity approximates dV/dS for a shift of every
// spread by its delta. The price difference is divided by the mean delta, or
// twice the mean delta for the central scheme. Backward and central shifts must
// stay below the spreads.
func (s *SpreadSensitivityCalculator) FiniteDifferenceSpreadSensitivity(cds *CDS, coupon float64, priceType PriceType, yc *curve.YieldCurve,
	pillars []*CDS, spreads, deltas []float64, fdType FiniteDifferenceType) (float64, error) {
	const op = "FiniteDifferenceSpreadSensitivity"
	n := len(pillars)
	if n == 0 || len(spreads) != n || len(deltas) != n {
		return 0, fmt.Errorf("%s: %w: %d pillars, %d spreads, %d deltas", op, ErrLengthMismatch, n, len(spreads), len(deltas))
	}
	if fdType != Forward && fdType != Backward && fdType != Central {
		return 0, fmt.Errorf("%s: %w: %s", op, ErrUnknownFiniteDifference, fdType)
	}
	mean := 0.0
	for i := range spreads {
		if spreads[i] <= 0 {
			return 0, fmt.Errorf("%s: %w: spread %d is %g", op, ErrInvalidSpread, i, spreads[i])
		}
		if deltas[i] < 0 {
			return 0, fmt.Errorf("%s: %w: delta %d is negative", op, ErrInvalidSpread, i)
		}
		if fdType != Forward && deltas[i] >= spreads[i] {
			return 0, fmt.Errorf("%s: %w: delta %d not below its spread for %s differences", op, ErrInvalidSpread, i, fdType)
		}
		mean += deltas[i]
	}
	mean /= float64(n)
	if err := s.checkBump(op, mean); err != nil {
		return 0, err
	}

	up := make([]float64, n)
	down := make([]float64, n)
	for i := range spreads {
		up[i] = spreads[i]
		down[i] = spreads[i]
		if fdType != Backward {
			up[i] += deltas[i]
		}
		if fdType != Forward {
			down[i] -= deltas[i]
		}
	}
	hi, err := s.priceFromSpreads(cds, coupon, yc, pillars, up, priceType)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	lo, err := s.priceFromSpreads(cds, coupon, yc, pillars, down, priceType)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if fdType == Central {
		return (hi - lo) / (2 * mean), nil
	}
	return (hi - lo) / mean, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *SpreadSensitivityCalculator) checkSpreads(op string, pillars []*CDS, spreads []float64, bump float64) error {
	if err := s.checkBump(op, bump); err != nil {
		return err
	}
	if len(spreads) == 0 {
		return fmt.Errorf("%s: %w: no spreads", op, ErrLengthMismatch)
	}
	if len(pillars) != len(spreads) {
		return fmt.Errorf("%s: %w: %d pillars, %d spreads", op, ErrLengthMismatch, len(pillars), len(spreads))
	}
	return nil
}

func (s *SpreadSensitivityCalculator) priceFromSpreads(cds *CDS, coupon float64, yc *curve.YieldCurve, pillars []*CDS, spreads []float64, priceType PriceType) (float64, error) {
	hc, err := s.builder.CalibrateParSpreads(pillars, spreads, yc)
	if err != nil {
		return 0, err
	}
	return s.pricer.PV(cds, yc, hc, coupon, priceType)
}

func (s *SpreadSensitivityCalculator) priceFromQuotes(cds *CDS, coupon float64, yc *curve.YieldCurve, pillars []*CDS, quotes []Quote) (float64, error) {
	hc, err := s.builder.Calibrate(pillars, quotes, yc)
	if err != nil {
		return 0, err
	}
	return s.pricer.PV(cds, yc, hc, coupon, Clean)
}

func (s *SpreadSensitivityCalculator) bumpQuote(cds *CDS, q Quote, yc *curve.YieldCurve, bump float64) (Quote, error) {
	switch q := q.(type) {
	case ParSpread:
		return ParSpread{Spread: q.Spread + bump}, nil
	case QuotedSpread:
		return QuotedSpread{Premium: q.Premium, Spread: q.Spread + bump}, nil
	case PointsUpFront:
		qs, err := s.puf.PUFToQuotedSpread(cds, q.Premium, yc, q.Value)
		if err != nil {
			return nil, err
		}
		v, err := s.puf.QuotedSpreadToPUF(cds, q.Premium, yc, qs+bump)
		if err != nil {
			return nil, err
		}
		return PointsUpFront{Premium: q.Premium, Value: v}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownQuote, q)
}

// eachPillar runs f for every pillar on at most workers goroutines.
func (s *SpreadSensitivityCalculator) eachPillar(n int, f func(i int) error) error {
	var g errgroup.Group
	if s.workers > 0 {
		g.SetLimit(s.workers)
	}
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := f(i); err != nil {
				return fmt.Errorf("pillar %d: %w", i, err)
			}
			s.logger.Debug("pillar bumped", zap.Int("pillar", i))
			return nil
		})
	}
	return g.Wait()
}

func bumpOne(spread, bump float64, bumpType BumpType) (float64, error) {
	switch bumpType {
	case Additive:
		return spread + bump, nil
	case Multiplicative:
		return spread * (1 + bump), nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownBumpType, bumpType)
}

func bumpAll(spreads []float64, bump float64, bumpType BumpType) ([]float64, error) {
	out := make([]float64, len(spreads))
	for i, sp := range spreads {
		v, err := bumpOne(sp, bump, bumpType)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func bumpAt(spreads []float64, bump float64, bumpType BumpType, index int) ([]float64, error) {
	out := append([]float64(nil), spreads...)
	v, err := bumpOne(out[index], bump, bumpType)
	if err != nil {
		return nil, err
	}
	out[index] = v
	return out, nil
}

package calibration

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meenmo/mocurve/config"
	"github.com/meenmo/mocurve/instrument"
	"github.com/meenmo/mocurve/interp"
	"github.com/meenmo/mocurve/market"
	"github.com/meenmo/mocurve/money"
	"github.com/meenmo/mocurve/pricing"
	"github.com/meenmo/mocurve/rootfind"
)

// Builder calibrates curves with a Broyden solver. A Builder holds no state
// between calls and may be shared by goroutines.
type Builder struct {
	pv         PresentValuer
	sens       CurveSensitivityProvider
	rootFinder rootfind.Broyden
	nodeTimes  NodeTimeCalculator
	startRate  float64
	workers    int
	logger     *zap.Logger
}

type Option func(*Builder)

// WithConfig takes the solver settings, start rate and worker count from c.
func WithConfig(c config.Config) Option {
	return func(b *Builder) {
		b.rootFinder = rootfind.NewBroyden(c.RootFinder.AbsoluteTolerance, c.RootFinder.RelativeTolerance, c.RootFinder.MaxSteps)
		b.startRate = c.DefaultStartRate
		b.workers = c.Workers
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

func WithRootFinder(r rootfind.Broyden) Option {
	return func(b *Builder) { b.rootFinder = r }
}

func WithNodeTimeCalculator(c NodeTimeCalculator) Option {
	return func(b *Builder) {
		if c != nil {
			b.nodeTimes = c
		}
	}
}

// WithStartRate sets the flat zero rate used when no start vector is given.
func WithStartRate(r float64) Option {
	return func(b *Builder) { b.startRate = r }
}

// WithPricers replaces the present value and sensitivity calculators.
// A nil sens makes the solver start from a finite difference Jacobian.
func WithPricers(pv PresentValuer, sens CurveSensitivityProvider) Option {
	return func(b *Builder) {
		if pv != nil {
			b.pv = pv
		}
		b.sens = sens
	}
}

// WithFiniteDifferenceJacobian drops the analytic Jacobian.
func WithFiniteDifferenceJacobian() Option {
	return func(b *Builder) { b.sens = nil }
}

func NewBuilder(opts ...Option) *Builder {
	methods := pricing.DefaultMethods()
	b := &Builder{
		pv:        pricing.NewPresentValueCalculator(methods),
		sens:      pricing.NewCurveSensitivityCalculator(methods),
		nodeTimes: MaturityNodeTime{},
		logger:    zap.NewNop(),
	}
	WithConfig(config.Default)(b)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Calibrate solves data from start. A nil start uses the flat start rate on every
// node, which is only allowed when no price index curve is solved.
func (b *Builder) Calibrate(data *DataBundle, start []float64) (*market.Bundle, error) {
	f, err := NewFinderFunction(data, b.pv)
	if err != nil {
		return nil, fmt.Errorf("Calibrate: %w", err)
	}
	n := data.NumberOfNodes()
	if start == nil {
		if len(data.PriceIndexRefs) > 0 {
			return nil, fmt.Errorf("Calibrate: %w: price index curves need start values", ErrInvalidConfiguration)
		}
		start = make([]float64, n)
		for i := range start {
			start[i] = b.startRate
		}
	}
	if len(start) != n {
		return nil, fmt.Errorf("Calibrate: %w: %d start values for %d nodes", ErrInvalidConfiguration, len(start), n)
	}

	var jac rootfind.JacobianFunc
	if b.sens != nil {
		j, err := NewFinderJacobian(data, b.sens)
		if err != nil {
			return nil, fmt.Errorf("Calibrate: %w", err)
		}
		jac = j.Evaluate
	}

	b.logger.Debug("calibrating",
		zap.Strings("curves", data.CurveNames),
		zap.Int("nodes", n),
		zap.Bool("analyticJacobian", jac != nil))

	x, err := b.rootFinder.Root(f.Evaluate, jac, start)
	if err != nil {
		b.logger.Warn("calibration failed", zap.Strings("curves", data.CurveNames), zap.Error(err))
		return nil, fmt.Errorf("Calibrate %v: %w: %w", data.CurveNames, ErrCalibrationFailed, err)
	}
	return BuildMarket(data, x)
}

// Discounting calibrates a single curve named "<CCY> discounting", used to
// discount ccy and to forward every index in indexes.
func (b *Builder) Discounting(instruments []instrument.Instrument, startRates []float64, ccy money.Currency, indexes []string, interpolator interp.Interpolator) (*market.Bundle, error) {
	forwardRefs := make(map[string]int, len(indexes))
	for _, index := range indexes {
		forwardRefs[index] = 0
	}
	return b.DiscountingForward(nil, Step{
		Instruments:     [][]instrument.Instrument{instruments},
		CurveNames:      []string{string(ccy) + " discounting"},
		DiscountingRefs: map[money.Currency]int{ccy: 0},
		ForwardRefs:     forwardRefs,
		StartValues:     startRates,
		Interpolator:    interpolator,
	})
}

// Step is one joint calibration: Instruments[i] pins the nodes of CurveNames[i].
type Step struct {
	Instruments [][]instrument.Instrument
	CurveNames  []string
	// NodeTimes overrides the node time calculator when set.
	NodeTimes [][]float64
	// MarketValues follow the instruments group after group. Nil means zero.
	MarketValues []float64
	// StartValues follow the nodes curve after curve. Nil means the flat start rate.
	StartValues []float64

	DiscountingRefs map[money.Currency]int
	ForwardRefs     map[string]int
	PriceIndexRefs  map[string]int

	Interpolator interp.Interpolator
}

// DiscountingForward calibrates the curves of step jointly on top of known,
// which is not modified. Curves of known that are not solved are kept.
func (b *Builder) DiscountingForward(known *market.Bundle, step Step) (*market.Bundle, error) {
	data, err := b.dataBundle(known, step)
	if err != nil {
		return nil, fmt.Errorf("DiscountingForward: %w", err)
	}
	return b.Calibrate(data, step.StartValues)
}

func (b *Builder) dataBundle(known *market.Bundle, step Step) (*DataBundle, error) {
	nCurves := len(step.CurveNames)
	if len(step.Instruments) != nCurves {
		return nil, fmt.Errorf("%w: %d instrument groups for %d curves", ErrInvalidConfiguration, len(step.Instruments), nCurves)
	}
	if step.NodeTimes != nil && len(step.NodeTimes) != nCurves {
		return nil, fmt.Errorf("%w: %d node time vectors for %d curves", ErrInvalidConfiguration, len(step.NodeTimes), nCurves)
	}
	if step.Interpolator == nil {
		return nil, fmt.Errorf("%w: no interpolator", ErrInvalidConfiguration)
	}

	data := &DataBundle{
		KnownMarket:     known,
		MarketValues:    step.MarketValues,
		CurveNames:      step.CurveNames,
		NodeTimes:       make([][]float64, nCurves),
		Interpolators:   make([]interp.Interpolator, nCurves),
		DiscountingRefs: step.DiscountingRefs,
		ForwardRefs:     step.ForwardRefs,
		PriceIndexRefs:  step.PriceIndexRefs,
	}
	for i, group := range step.Instruments {
		data.Instruments = append(data.Instruments, group...)
		data.Interpolators[i] = step.Interpolator
		if step.NodeTimes != nil {
			data.NodeTimes[i] = step.NodeTimes[i]
			continue
		}
		times, err := NodeTimes(b.nodeTimes, group)
		if err != nil {
			return nil, err
		}
		data.NodeTimes[i] = times
	}
	return data, nil
}

// DiscountingForwardConsecutive runs the steps in order, each on top of the
// market returned by the previous one.
func (b *Builder) DiscountingForwardConsecutive(known *market.Bundle, steps []Step) (*market.Bundle, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("DiscountingForwardConsecutive: %w: no steps", ErrInvalidConfiguration)
	}
	current := known
	for i, step := range steps {
		next, err := b.DiscountingForward(current, step)
		if err != nil {
			return nil, fmt.Errorf("DiscountingForwardConsecutive: step %d: %w", i, err)
		}
		b.logger.Debug("step calibrated", zap.Int("step", i), zap.Strings("curves", step.CurveNames))
		current = next
	}
	return current, nil
}

// Request is an independent staged calibration.
type Request struct {
	Known *market.Bundle
	Steps []Step
}

// BuildAll runs independent requests concurrently. Results are in request order;
// the first failure cancels requests that have not started.
func (b *Builder) BuildAll(ctx context.Context, requests []Request) ([]*market.Bundle, error) {
	out := make([]*market.Bundle, len(requests))
	g, ctx := errgroup.WithContext(ctx)
	if b.workers > 0 {
		g.SetLimit(b.workers)
	}
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := b.DiscountingForwardConsecutive(req.Known, req.Steps)
			if err != nil {
				return fmt.Errorf("BuildAll: request %d: %w", i, err)
			}
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

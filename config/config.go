package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds solver, calibration and bump parameters.
type Config struct {
	RootFinder RootFinderConfig `mapstructure:"root_finder"`

	// DefaultStartRate is the flat zero rate used as the initial guess for every node
	// when the caller supplies no start vector.
	DefaultStartRate float64 `mapstructure:"default_start_rate"`

	Credit CreditConfig `mapstructure:"credit"`

	// Workers bounds the number of concurrent calibrations or bumped pillars. Zero means unbounded.
	Workers int `mapstructure:"workers"`
}

// RootFinderConfig configures the vector root finder.
type RootFinderConfig struct {
	AbsoluteTolerance float64 `mapstructure:"absolute_tolerance"`
	RelativeTolerance float64 `mapstructure:"relative_tolerance"`
	MaxSteps          int     `mapstructure:"max_steps"`
}

// CreditConfig configures the hazard curve bootstrap and spread sensitivities.
type CreditConfig struct {
	// Tolerance is the hazard rate accuracy of the per-pillar solve.
	Tolerance     float64 `mapstructure:"tolerance"`
	MaxIterations int     `mapstructure:"max_iterations"`
	// MinBumpAmount rejects spread bumps too small to produce a meaningful difference.
	MinBumpAmount float64 `mapstructure:"min_bump_amount"`
}

// Default provides production-ready default values.
var Default = Config{
	RootFinder: RootFinderConfig{
		AbsoluteTolerance: 1e-8,
		RelativeTolerance: 1e-8,
		MaxSteps:          100,
	},
	DefaultStartRate: 0.025,
	Credit: CreditConfig{
		Tolerance:     1e-12,
		MaxIterations: 100,
		MinBumpAmount: 1e-10,
	},
	Workers: 4,
}

const envPrefix = "MOCURVE"

// Load reads the configuration from path (YAML, JSON or TOML, by extension) on top of
// Default. An empty path uses Default alone. Environment variables such as
// MOCURVE_ROOT_FINDER_MAX_STEPS override both.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("Load: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("Load: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("Load: %w", err)
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("root_finder.absolute_tolerance", Default.RootFinder.AbsoluteTolerance)
	v.SetDefault("root_finder.relative_tolerance", Default.RootFinder.RelativeTolerance)
	v.SetDefault("root_finder.max_steps", Default.RootFinder.MaxSteps)
	v.SetDefault("default_start_rate", Default.DefaultStartRate)
	v.SetDefault("credit.tolerance", Default.Credit.Tolerance)
	v.SetDefault("credit.max_iterations", Default.Credit.MaxIterations)
	v.SetDefault("credit.min_bump_amount", Default.Credit.MinBumpAmount)
	v.SetDefault("workers", Default.Workers)
}

var ErrInvalidConfig = errors.New("invalid config")

// Validate reports every out-of-range field.
func (c Config) Validate() error {
	var errs []error
	if c.RootFinder.AbsoluteTolerance <= 0 {
		errs = append(errs, fmt.Errorf("%w: root_finder.absolute_tolerance must be positive", ErrInvalidConfig))
	}
	if c.RootFinder.RelativeTolerance < 0 {
		errs = append(errs, fmt.Errorf("%w: root_finder.relative_tolerance must not be negative", ErrInvalidConfig))
	}
	if c.RootFinder.MaxSteps <= 0 {
		errs = append(errs, fmt.Errorf("%w: root_finder.max_steps must be positive", ErrInvalidConfig))
	}
	if c.Credit.Tolerance <= 0 {
		errs = append(errs, fmt.Errorf("%w: credit.tolerance must be positive", ErrInvalidConfig))
	}
	if c.Credit.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("%w: credit.max_iterations must be positive", ErrInvalidConfig))
	}
	if c.Credit.MinBumpAmount < 0 {
		errs = append(errs, fmt.Errorf("%w: credit.min_bump_amount must not be negative", ErrInvalidConfig))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

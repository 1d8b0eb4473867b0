package abund

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-abund/resolution"
	"github.com/cwbudde/algo-abund/stellar"
	"github.com/cwbudde/algo-abund/synth"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("abund: invalid config")

// Thresholds are the largest parameter changes between two loop passes
// that still count as converged.
type Thresholds struct {
	Teff    float64
	Logg    float64
	FeH     float64
	AlphaFe float64
}

// DefaultThresholds returns 1 K for Teff and 0.001 dex otherwise.
func DefaultThresholds() Thresholds {
	return Thresholds{Teff: 1, Logg: 0.001, FeH: 0.001, AlphaFe: 0.001}
}

// Within reports whether every parameter of next differs from prev by less
// than its threshold. Logg is compared only when fitLogg is set.
func (t Thresholds) Within(prev, next stellar.Params, fitLogg bool) bool {
	ok := abs(next.Teff-prev.Teff) < t.Teff &&
		abs(next.FeH-prev.FeH) < t.FeH &&
		abs(next.AlphaFe-prev.AlphaFe) < t.AlphaFe
	if fitLogg {
		ok = ok && abs(next.Logg-prev.Logg) < t.Logg
	}
	return ok
}

// Config fixes every constant of a solve. Build it with DefaultConfig and
// adjust fields before passing it to NewSolver.
type Config struct {
	Mode stellar.Mode
	// Root is the directory holding the mask definitions.
	Root string
	// BluePath and RedPath select the grid data of each arm.
	BluePath string
	RedPath  string
	// Arms overrides the arm layout derived from BluePath and RedPath.
	Arms []synth.ArmConfig

	DistanceModulus    float64
	DistanceModulusErr float64
	FitLogg            bool

	Resolution resolution.Table
	Bounds     stellar.Bounds
	Thresholds Thresholds

	// Seed holds the starting [Fe/H], [alpha/Fe] and free logg. Teff and
	// fixed logg start from the photometric prior.
	Seed stellar.Params
	// Initial, when set, replaces every starting value including Teff.
	Initial *stellar.Params

	MaxIterations int
	FlexFactor    float64
	// Tolerance is the relative cost, step and gradient tolerance of every
	// least-squares fit.
	Tolerance float64
	// MaxSolverIterations bounds each least-squares fit.
	MaxSolverIterations int
	// KeyQuantum, when positive, rounds synthetic cache keys.
	KeyQuantum float64
}

// DefaultConfig returns the configuration of the given spectral mode. An
// unknown mode yields a Config that fails Validate.
func DefaultConfig(mode stellar.Mode) Config {
	table, _ := resolution.DefaultTable(mode)
	return Config{
		Mode:                mode,
		Root:                "./",
		BluePath:            "../gridie/",
		RedPath:             "../grid7/",
		DistanceModulus:     22,
		DistanceModulusErr:  0.1,
		Resolution:          table,
		Bounds:              stellar.DefaultBounds(),
		Thresholds:          DefaultThresholds(),
		Seed:                stellar.Params{Logg: 1, FeH: -2, AlphaFe: 0},
		MaxIterations:       50,
		FlexFactor:          400,
		Tolerance:           1e-10,
		MaxSolverIterations: 200,
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	if _, err := stellar.ParseMode(string(c.Mode)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Resolution.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Bounds.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	t := c.Thresholds
	switch {
	case !(t.Teff > 0) || !(t.Logg > 0) || !(t.FeH > 0) || !(t.AlphaFe > 0):
		return fmt.Errorf("%w: thresholds must be positive: %+v", ErrInvalidConfig, t)
	case c.MaxIterations < 1:
		return fmt.Errorf("%w: max iterations %d", ErrInvalidConfig, c.MaxIterations)
	case !(c.FlexFactor > 0):
		return fmt.Errorf("%w: flex factor %v", ErrInvalidConfig, c.FlexFactor)
	case !(c.Tolerance > 0):
		return fmt.Errorf("%w: tolerance %v", ErrInvalidConfig, c.Tolerance)
	case c.MaxSolverIterations < 1:
		return fmt.Errorf("%w: max solver iterations %d", ErrInvalidConfig, c.MaxSolverIterations)
	case c.KeyQuantum < 0:
		return fmt.Errorf("%w: key quantum %v", ErrInvalidConfig, c.KeyQuantum)
	case !(c.DistanceModulusErr >= 0):
		return fmt.Errorf("%w: distance modulus error %v", ErrInvalidConfig, c.DistanceModulusErr)
	}
	if c.Initial != nil && !c.Initial.IsFinite() {
		return fmt.Errorf("%w: initial parameters %v", ErrInvalidConfig, *c.Initial)
	}
	return nil
}

func (c Config) arms() []synth.ArmConfig {
	if len(c.Arms) > 0 {
		return c.Arms
	}
	return synth.DefaultArms(c.BluePath, c.RedPath)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

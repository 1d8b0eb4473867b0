package synth

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-abund/dsp/core"
	"github.com/cwbudde/algo-abund/stellar"
)

var (
	// ErrNoCoverage is returned when no observed pixel lies in any arm.
	ErrNoCoverage = errors.New("synth: no data in synthetic grid coverage")
	// ErrNoTargets is returned by Synthesize for an empty target grid.
	ErrNoTargets = errors.New("synth: no target wavelengths")
	// ErrNoInterpolator is returned by NewProvider without a grid.
	ErrNoInterpolator = errors.New("synth: nil interpolator")
)

// DataCoverageError reports an observation that overlaps no arm.
type DataCoverageError struct {
	Min, Max float64 // observed wavelength span, NaN when empty
	Arms     []ArmConfig
}

func (e *DataCoverageError) Error() string {
	return fmt.Sprintf("synth: observed wavelengths [%g, %g] outside all %d grid arms", e.Min, e.Max, len(e.Arms))
}

// Unwrap returns ErrNoCoverage.
func (e *DataCoverageError) Unwrap() error { return ErrNoCoverage }

// Interpolator produces native-resolution grid spectra. path selects the
// arm's grid data and [start, stop) its wavelength range.
type Interpolator interface {
	Interpolate(p stellar.Params, path string, start, stop float64) (wvl, flux []float64, err error)
}

// InterpolatorFunc adapts a function to Interpolator.
type InterpolatorFunc func(p stellar.Params, path string, start, stop float64) ([]float64, []float64, error)

// Interpolate calls f.
func (f InterpolatorFunc) Interpolate(p stellar.Params, path string, start, stop float64) ([]float64, []float64, error) {
	return f(p, path, start, stop)
}

// ArmConfig describes one arm of the grid. Coverage is the half-open
// interval [Lo, Hi) used to detect observed pixels; Start and Stop bound
// the interpolated wavelengths.
type ArmConfig struct {
	Arm      stellar.Arm
	Path     string
	Coverage stellar.Interval
	Start    float64
	Stop     float64
}

func (a ArmConfig) covers(w float64) bool {
	return w >= a.Coverage.Lo && w < a.Coverage.Hi
}

// DefaultArms returns the blue [4100, 6300) and red [6300, 9100) arms.
func DefaultArms(bluePath, redPath string) []ArmConfig {
	return []ArmConfig{
		{Arm: stellar.ArmBlue, Path: bluePath, Coverage: stellar.Interval{Lo: 4100, Hi: 6300}, Start: 4100, Stop: 6300},
		{Arm: stellar.ArmRed, Path: redPath, Coverage: stellar.Interval{Lo: 6300, Hi: 9100}, Start: 6300, Stop: 9100},
	}
}

type config struct {
	arms    []ArmConfig
	quantum float64
}

// Option configures a Provider.
type Option func(*config)

// WithArms replaces the arm layout. Arms must be given in increasing,
// non-overlapping wavelength order.
func WithArms(arms ...ArmConfig) Option {
	return func(c *config) {
		c.arms = append([]ArmConfig(nil), arms...)
	}
}

// WithKeyQuantum keys the caches on parameters rounded to multiples of q.
func WithKeyQuantum(q float64) Option {
	return func(c *config) {
		if q > 0 {
			c.quantum = q
		}
	}
}

type arm struct {
	ArmConfig
	cache *Cache
}

// Provider synthesizes model spectra for one observation.
type Provider struct {
	grid Interpolator
	arms []arm
}

// NewProvider detects which arms the observed wavelengths wvl (normally the
// generally masked pixels) fall in and returns a Provider for those arms.
// It fails with a *DataCoverageError when none is covered.
func NewProvider(grid Interpolator, wvl []float64, opts ...Option) (*Provider, error) {
	if grid == nil {
		return nil, ErrNoInterpolator
	}
	cfg := config{arms: DefaultArms("", "")}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	p := &Provider{grid: grid}
	for _, a := range cfg.arms {
		for _, w := range wvl {
			if a.covers(w) {
				p.arms = append(p.arms, arm{ArmConfig: a, cache: NewCache(cfg.quantum)})
				break
			}
		}
	}
	if len(p.arms) == 0 {
		lo, hi := core.MinMax(wvl)
		return nil, &DataCoverageError{Min: lo, Max: hi, Arms: cfg.arms}
	}
	return p, nil
}

// Arms returns the covered arms in wavelength order.
func (p *Provider) Arms() []stellar.Arm {
	out := make([]stellar.Arm, len(p.arms))
	for i, a := range p.arms {
		out[i] = a.Arm
	}
	return out
}

// Covers reports whether a is among the covered arms.
func (p *Provider) Covers(a stellar.Arm) bool {
	for _, x := range p.arms {
		if x.Arm == a {
			return true
		}
	}
	return false
}

// Stats returns the cache counters of every covered arm.
func (p *Provider) Stats() map[stellar.Arm]Stats {
	out := make(map[stellar.Arm]Stats, len(p.arms))
	for _, a := range p.arms {
		out[a.Arm] = a.cache.Stats()
	}
	return out
}

// Synthesize returns the native-resolution model at params restricted to
// the open interval between the smallest and largest target wavelength.
// Covered arms are concatenated blue first.
func (p *Provider) Synthesize(targets []float64, params stellar.Params) (wvl, flux []float64, err error) {
	if len(targets) == 0 {
		return nil, nil, ErrNoTargets
	}
	lo, hi := core.MinMax(targets)

	for i := range p.arms {
		a := &p.arms[i]
		aw, af, err := p.lookup(a, params)
		if err != nil {
			return nil, nil, err
		}
		for j, w := range aw {
			if w > lo && w < hi {
				wvl = append(wvl, w)
				flux = append(flux, af[j])
			}
		}
	}
	return wvl, flux, nil
}

func (p *Provider) lookup(a *arm, params stellar.Params) ([]float64, []float64, error) {
	if w, f, ok := a.cache.Get(params); ok {
		return w, f, nil
	}
	w, f, err := p.grid.Interpolate(params, a.Path, a.Start, a.Stop)
	if err != nil {
		return nil, nil, fmt.Errorf("synth: %s arm at %v: %w", a.Arm, params, err)
	}
	if len(w) != len(f) {
		return nil, nil, fmt.Errorf("synth: %s arm returned %d wavelengths and %d fluxes", a.Arm, len(w), len(f))
	}
	a.cache.Put(params, w, f)
	return w, f, nil
}

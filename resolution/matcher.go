package resolution

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-abund/dsp/conv"
	"github.com/cwbudde/algo-abund/dsp/interp"
	"github.com/cwbudde/algo-abund/dsp/window"
)

var (
	// ErrProfileMismatch is returned when the profile and target lengths differ.
	ErrProfileMismatch = errors.New("resolution: profile length does not match targets")
	// ErrNoTargets is returned for an empty target grid.
	ErrNoTargets = errors.New("resolution: no target wavelengths")
)

type config struct {
	truncate   float64
	minSamples float64
}

// Option configures a Matcher.
type Option func(*config)

// WithTruncate sets the kernel half-width in units of sigma (default 4).
func WithTruncate(n float64) Option {
	return func(c *config) {
		if n > 0 {
			c.truncate = n
		}
	}
}

// WithMinSamples sets the sigma, in native samples, below which a model is
// treated as already resolved and only interpolated (default 0.5).
func WithMinSamples(n float64) Option {
	return func(c *config) {
		if n >= 0 {
			c.minSamples = n
		}
	}
}

// Matcher convolves native-resolution models to a resolution profile and
// resamples them onto target wavelengths. A Matcher is stateless and safe
// for concurrent use.
type Matcher struct {
	cfg config
}

// NewMatcher returns a Matcher.
func NewMatcher(opts ...Option) *Matcher {
	cfg := config{truncate: 4, minSamples: 0.5}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Matcher{cfg: cfg}
}

// Match smooths (modelWvl, modelFlux) with the Gaussian widths of prof and
// returns the result sampled at targets. prof must hold one sigma per target.
func (m *Matcher) Match(modelWvl, modelFlux, targets []float64, prof Profile) ([]float64, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	if prof.Len() != len(targets) {
		return nil, fmt.Errorf("%w: %d sigmas, %d targets", ErrProfileMismatch, prof.Len(), len(targets))
	}
	model, err := interp.NewTable(modelWvl, modelFlux)
	if err != nil {
		return nil, fmt.Errorf("resolution: model: %w", err)
	}

	out := make([]float64, len(targets))

	for start := 0; start < len(targets); {
		end := start + 1
		for end < len(targets) && prof.At(end) == prof.At(start) {
			end++
		}
		if err := m.matchRun(model, modelWvl, modelFlux, targets[start:end], prof.At(start), out[start:end]); err != nil {
			return nil, err
		}
		start = end
	}

	return out, nil
}

// matchRun handles a run of targets sharing one sigma. The model is
// resampled at its own mean spacing within the run's reach, so a stitched
// model keeps each arm's native sampling.
func (m *Matcher) matchRun(model *interp.Table, modelWvl, modelFlux, targets []float64, sigma float64, dst []float64) error {
	if !(sigma > 0) {
		return model.ResampleTo(dst, targets)
	}

	tlo, thi := targets[0], targets[0]
	for _, t := range targets[1:] {
		tlo = math.Min(tlo, t)
		thi = math.Max(thi, t)
	}
	reach := m.cfg.truncate * sigma
	lo := math.Max(tlo-reach, modelWvl[0])
	hi := math.Min(thi+reach, modelWvl[len(modelWvl)-1])
	step := spacing(modelWvl, lo, hi)
	if sigma/step < m.cfg.minSamples {
		return model.ResampleTo(dst, targets)
	}
	n := int(math.Floor((hi-lo)/step)) + 1
	if n < 2 {
		return model.ResampleTo(dst, targets)
	}

	grid, vals, err := interp.Uniform(modelWvl, modelFlux, lo, step, n)
	if err != nil {
		return fmt.Errorf("resolution: resample: %w", err)
	}
	kernel, err := window.GaussianKernel(sigma/step, m.cfg.truncate)
	if err != nil {
		return fmt.Errorf("resolution: kernel: %w", err)
	}
	smooth, err := conv.Smooth(vals, kernel)
	if err != nil {
		return fmt.Errorf("resolution: convolve: %w", err)
	}
	smoothed, err := interp.NewTable(grid, smooth)
	if err != nil {
		return fmt.Errorf("resolution: smoothed model: %w", err)
	}
	return smoothed.ResampleTo(dst, targets)
}

// spacing returns the mean spacing of the model points in [lo, hi], or of
// the whole model when fewer than two points fall inside.
func spacing(wvl []float64, lo, hi float64) float64 {
	i := sort.SearchFloat64s(wvl, lo)
	j := sort.Search(len(wvl), func(k int) bool { return wvl[k] > hi }) - 1
	if j-i < 1 {
		i, j = 0, len(wvl)-1
	}
	return (wvl[j] - wvl[i]) / float64(j-i)
}

package continuum

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-abund/spectrum"
)

// Normalizer provides the initial continuum of a spectrum.
type Normalizer struct {
	cfg config
}

// NewNormalizer returns a Normalizer fitting degree-4 polynomials per arm,
// clipping 1.5 sigma below and 3 sigma above the fit for up to 10 passes.
func NewNormalizer(opts ...Option) *Normalizer {
	return &Normalizer{cfg: newConfig(config{degree: 4, low: 1.5, high: 3, iterations: 10, split: 6300}, opts)}
}

// Normalize fits the observed flux of s.
func (n *Normalizer) Normalize(s *spectrum.Spectrum) ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	good := s.GoodPixels()
	flux := make([]float64, s.Len())
	for i, g := range good {
		if g {
			flux[i] = s.Flux[i]
		}
	}
	return n.cfg.fitArms(s.Wavelength, flux, s.Ivar, good)
}

// Refiner re-estimates the continuum against a model spectrum.
type Refiner struct {
	cfg config
}

// NewRefiner returns a Refiner fitting degree-4 polynomials per arm with
// symmetric 3 sigma clipping for up to 10 passes.
func NewRefiner(opts ...Option) *Refiner {
	return &Refiner{cfg: newConfig(config{degree: 4, low: 3, high: 3, iterations: 10, split: 6300}, opts)}
}

// Refine fits flux/model with weights ivar*model^2, the inverse variance
// of the ratio. model is the continuum-normalized model on the observed
// wavelengths of s.
func (r *Refiner) Refine(s *spectrum.Spectrum, model []float64) ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if len(model) != s.Len() {
		return nil, fmt.Errorf("%w: model=%d, want %d", spectrum.ErrLengthMismatch, len(model), s.Len())
	}

	use := s.GoodPixels()
	ratio := make([]float64, s.Len())
	w := make([]float64, s.Len())
	for i := range use {
		m := model[i]
		if !use[i] || !(m > 0) || math.IsInf(m, 0) {
			use[i] = false
			continue
		}
		ratio[i] = s.Flux[i] / m
		w[i] = s.Ivar[i] * m * m
	}
	return r.cfg.fitArms(s.Wavelength, ratio, w, use)
}

// Identity is a refiner that keeps the current continuum. It is useful when
// the continuum is known.
type Identity struct{}

// Refine returns a copy of the current continuum of s, or of its initial
// continuum when no refinement has been stored yet.
func (Identity) Refine(s *spectrum.Spectrum, _ []float64) ([]float64, error) {
	c := s.Continuum
	if c == nil {
		c = s.InitialContinuum
	}
	if len(c) != s.Len() {
		return nil, fmt.Errorf("%w: continuum=%d, want %d", spectrum.ErrLengthMismatch, len(c), s.Len())
	}
	return append([]float64(nil), c...), nil
}

// Fixed is a normalizer returning the given continuum.
type Fixed []float64

// Normalize returns a copy of f.
func (f Fixed) Normalize(s *spectrum.Spectrum) ([]float64, error) {
	if len(f) != s.Len() {
		return nil, fmt.Errorf("%w: continuum=%d, want %d", spectrum.ErrLengthMismatch, len(f), s.Len())
	}
	return append([]float64(nil), f...), nil
}

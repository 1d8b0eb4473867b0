package spectrum

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-abund/dsp/core"
	"github.com/cwbudde/algo-abund/stellar"
)

var (
	// ErrEmpty is returned for a spectrum without samples.
	ErrEmpty = errors.New("spectrum: no samples")
	// ErrLengthMismatch is returned when per-pixel arrays differ in length.
	ErrLengthMismatch = errors.New("spectrum: array length mismatch")
	// ErrNotIncreasing is returned when wavelengths are not strictly increasing.
	ErrNotIncreasing = errors.New("spectrum: wavelengths must be strictly increasing")
	// ErrEmptyMask is returned when a mask selects no pixels.
	ErrEmptyMask = errors.New("spectrum: mask selects no pixels")
)

// Photometry carries the broadband inputs used to build the photometric
// prior. Optional quantities are nil when absent.
type Photometry struct {
	TeffPhot    float64  `json:"teffphot"`
	TeffPhotErr float64  `json:"teffphoterr"`
	LoggPhot    *float64 `json:"loggphot,omitempty"`
	// Magnitude is an apparent magnitude used with the distance modulus to
	// derive logg when LoggPhot is not given.
	Magnitude            *float64 `json:"mag,omitempty"`
	BolometricCorrection float64  `json:"bc,omitempty"`
	Mass                 float64  `json:"mass,omitempty"` // solar masses
}

// Result is the solver output written back onto the spectrum. Params and
// Uncertainties share field names, so read them through the embedded field
// (r.Params.Teff, r.Uncertainties.Teff). JSON flattens both under distinct
// keys.
type Result struct {
	stellar.Params
	stellar.Uncertainties
	ConvergeFlag int       `json:"converge_flag"` // 1 converged, 0 iteration cap reached
	Iterations   int       `json:"iterations"`
	Synth        []float64 `json:"synth"`
}

// Spectrum is an observed spectrum with its metadata.
type Spectrum struct {
	ID         string    `json:"id"`
	Wavelength []float64 `json:"wvl"`
	Flux       []float64 `json:"flux"`
	Ivar       []float64 `json:"ivar"`

	// InitialContinuum is the first continuum estimate; Continuum is the
	// latest refinement. Both are nil until a solve has run.
	InitialContinuum []float64 `json:"initcont,omitempty"`
	Continuum        []float64 `json:"refinedcont,omitempty"`

	Photometry Photometry `json:"photometry"`
	Result     *Result    `json:"result,omitempty"`
}

// Len returns the number of pixels.
func (s *Spectrum) Len() int { return len(s.Wavelength) }

// Validate checks array lengths and wavelength ordering.
func (s *Spectrum) Validate() error {
	n := len(s.Wavelength)
	if n == 0 {
		return ErrEmpty
	}
	if len(s.Flux) != n || len(s.Ivar) != n {
		return fmt.Errorf("%w: wvl=%d flux=%d ivar=%d", ErrLengthMismatch, n, len(s.Flux), len(s.Ivar))
	}
	for _, c := range [][]float64{s.InitialContinuum, s.Continuum} {
		if c != nil && len(c) != n {
			return fmt.Errorf("%w: continuum=%d, want %d", ErrLengthMismatch, len(c), n)
		}
	}
	if !core.StrictlyIncreasing(s.Wavelength) {
		return ErrNotIncreasing
	}
	return nil
}

// GoodPixels returns the mask of pixels with finite flux and positive,
// finite inverse variance.
func (s *Spectrum) GoodPixels() Mask {
	m := make(Mask, s.Len())
	for i := range m {
		m[i] = core.IsFinite(s.Flux[i]) && core.IsFinite(s.Ivar[i]) && s.Ivar[i] > 0
	}
	return m
}

// Normalized returns the wavelengths, continuum-normalized fluxes and
// one-sigma uncertainties of the pixels selected by m:
//
//	flux  = F / C
//	sigma = (ivar * C^2)^(-1/2)
func (s *Spectrum) Normalized(m Mask, continuum []float64) (wvl, flux, sigma []float64, err error) {
	if len(m) != s.Len() || len(continuum) != s.Len() {
		return nil, nil, nil, ErrLengthMismatch
	}
	idx := m.Indices()
	if len(idx) == 0 {
		return nil, nil, nil, ErrEmptyMask
	}

	cont := m.Select(continuum)
	wvl = m.Select(s.Wavelength)
	flux = m.Select(s.Flux)
	ivar := m.Select(s.Ivar)

	sigma = make([]float64, len(idx))
	vecmath.MulBlock(sigma, cont, cont)
	vecmath.MulBlockInPlace(sigma, ivar)
	for i := range sigma {
		sigma[i] = 1 / math.Sqrt(sigma[i])
		flux[i] /= cont[i]
	}

	return wvl, flux, sigma, nil
}

// Apply stores r on the spectrum together with the final continuum.
func (s *Spectrum) Apply(r Result, continuum []float64) {
	s.Result = &r
	if continuum != nil {
		s.Continuum = append([]float64(nil), continuum...)
	}
}

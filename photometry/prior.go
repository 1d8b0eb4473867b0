package photometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-abund/spectrum"
)

// Solar reference values.
const (
	SolarLogg = 4.438
	SolarTeff = 5772.0
	SolarMbol = 4.74
)

// DefaultMass is the stellar mass, in solar masses, assumed when the
// metadata carries none.
const DefaultMass = 0.75

// ErrNoTeff is returned when the metadata lacks a usable temperature.
var ErrNoTeff = errors.New("photometry: no photometric temperature")

// Estimate is a photometric prior. Logg is NaN when no gravity could be
// derived.
type Estimate struct {
	Teff    float64
	TeffErr float64
	Logg    float64
	LoggErr float64
}

// HasLogg reports whether Logg is usable.
func (e Estimate) HasLogg() bool { return !math.IsNaN(e.Logg) && !math.IsInf(e.Logg, 0) }

// Prior computes estimates from spectrum metadata.
type Prior struct {
	mass float64
}

// Option configures a Prior.
type Option func(*Prior)

// WithMass sets the assumed stellar mass in solar masses.
func WithMass(m float64) Option {
	return func(p *Prior) {
		if m > 0 {
			p.mass = m
		}
	}
}

// NewPrior returns a Prior assuming DefaultMass.
func NewPrior(opts ...Option) *Prior {
	p := &Prior{mass: DefaultMass}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Estimate returns the prior of s for distance modulus dm with
// uncertainty ddm.
func (p *Prior) Estimate(s *spectrum.Spectrum, dm, ddm float64) (Estimate, error) {
	ph := s.Photometry
	if !(ph.TeffPhot > 0) || !(ph.TeffPhotErr > 0) || math.IsInf(ph.TeffPhot, 0) || math.IsInf(ph.TeffPhotErr, 0) {
		return Estimate{}, fmt.Errorf("%w: teffphot=%v teffphoterr=%v", ErrNoTeff, ph.TeffPhot, ph.TeffPhotErr)
	}
	e := Estimate{Teff: ph.TeffPhot, TeffErr: ph.TeffPhotErr, Logg: math.NaN()}

	switch {
	case ph.LoggPhot != nil:
		e.Logg = *ph.LoggPhot
	case ph.Magnitude != nil:
		mass := p.mass
		if ph.Mass > 0 {
			mass = ph.Mass
		}
		e.Logg = BolometricLogg(e.Teff, *ph.Magnitude-dm+ph.BolometricCorrection, mass)
		e.LoggErr = math.Hypot(0.4*ddm, 4*e.TeffErr/(e.Teff*math.Ln10))
	}
	return e, nil
}

// BolometricLogg returns the surface gravity of a star with effective
// temperature teff, absolute bolometric magnitude mbol and mass (solar
// masses).
func BolometricLogg(teff, mbol, mass float64) float64 {
	return SolarLogg + math.Log10(mass) + 4*math.Log10(teff/SolarTeff) + 0.4*(mbol-SolarMbol)
}

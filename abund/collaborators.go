package abund

import (
	"github.com/cwbudde/algo-abund/continuum"
	"github.com/cwbudde/algo-abund/mask"
	"github.com/cwbudde/algo-abund/photometry"
	"github.com/cwbudde/algo-abund/resolution"
	"github.com/cwbudde/algo-abund/spectrum"
	"github.com/cwbudde/algo-abund/stellar"
)

// PhotometricPrior estimates Teff and logg from photometry.
type PhotometricPrior interface {
	Estimate(s *spectrum.Spectrum, dm, ddm float64) (photometry.Estimate, error)
}

// ContinuumNormalizer provides the starting continuum.
type ContinuumNormalizer interface {
	Normalize(s *spectrum.Spectrum) ([]float64, error)
}

// ContinuumRefiner re-estimates the continuum against a normalized model
// sampled on the observed wavelengths.
type ContinuumRefiner interface {
	Refine(s *spectrum.Spectrum, model []float64) ([]float64, error)
}

// Matcher degrades a native model to the observed resolution.
type Matcher interface {
	Match(modelWvl, modelFlux, targets []float64, prof resolution.Profile) ([]float64, error)
}

// MaskProvider builds the metallicity, alpha and general masks.
type MaskProvider interface {
	LoadMasks(s *spectrum.Spectrum, mode stellar.Mode, root string) (mask.Set, error)
}

var (
	_ PhotometricPrior    = (*photometry.Prior)(nil)
	_ ContinuumNormalizer = (*continuum.Normalizer)(nil)
	_ ContinuumRefiner    = (*continuum.Refiner)(nil)
	_ Matcher             = (*resolution.Matcher)(nil)
	_ MaskProvider        = (*mask.Provider)(nil)
)

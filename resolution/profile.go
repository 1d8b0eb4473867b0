package resolution

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-abund/dsp/core"
	"github.com/cwbudde/algo-abund/spectrum"
	"github.com/cwbudde/algo-abund/stellar"
)

// ErrInvalidTable is returned for a resolution table with non-positive widths.
var ErrInvalidTable = errors.New("resolution: invalid table")

// Table gives the instrumental FWHM (Angstrom) of each arm. Pixels strictly
// inside BlueWindow use BlueFWHM, all others RedFWHM.
type Table struct {
	BlueFWHM   float64
	RedFWHM    float64
	BlueWindow stellar.Interval
}

// DefaultTable returns the resolution table of a spectral mode.
func DefaultTable(mode stellar.Mode) (Table, error) {
	switch mode {
	case stellar.ModeLow:
		return Table{BlueFWHM: 2.1, RedFWHM: 2.7, BlueWindow: stellar.Interval{Lo: 3800, Hi: 6300}}, nil
	case stellar.ModeMedium:
		return Table{BlueFWHM: 2.1, RedFWHM: 1.6, BlueWindow: stellar.Interval{Lo: 3800, Hi: 6500}}, nil
	default:
		return Table{}, fmt.Errorf("%w: %q", stellar.ErrUnknownMode, mode)
	}
}

// Validate checks that both widths are positive and the window is usable.
func (t Table) Validate() error {
	if !(t.BlueFWHM > 0) || !(t.RedFWHM > 0) || !t.BlueWindow.Valid() {
		return fmt.Errorf("%w: %+v", ErrInvalidTable, t)
	}
	return nil
}

// FWHM returns the full width at half maximum at wavelength wvl.
func (t Table) FWHM(wvl float64) float64 {
	if wvl > t.BlueWindow.Lo && wvl < t.BlueWindow.Hi {
		return t.BlueFWHM
	}
	return t.RedFWHM
}

// Profile is an immutable per-pixel Gaussian sigma array.
type Profile struct {
	sigma []float64
}

// NewProfile builds the profile for the wavelengths wvl.
func NewProfile(wvl []float64, t Table) (Profile, error) {
	if err := t.Validate(); err != nil {
		return Profile{}, err
	}
	sigma := make([]float64, len(wvl))
	for i, w := range wvl {
		sigma[i] = t.FWHM(w) * core.FWHMToSigma
	}
	return Profile{sigma: sigma}, nil
}

// ProfileFromSigma wraps a copy of an explicit sigma array.
func ProfileFromSigma(sigma []float64) Profile {
	return Profile{sigma: append([]float64(nil), sigma...)}
}

// Len returns the number of pixels.
func (p Profile) Len() int { return len(p.sigma) }

// At returns the sigma of pixel i.
func (p Profile) At(i int) float64 { return p.sigma[i] }

// Sigma returns a copy of the sigma array.
func (p Profile) Sigma() []float64 { return append([]float64(nil), p.sigma...) }

// Select restricts the profile to the pixels chosen by m.
func (p Profile) Select(m spectrum.Mask) (Profile, error) {
	if len(m) != len(p.sigma) {
		return Profile{}, fmt.Errorf("resolution: mask length %d, profile length %d", len(m), len(p.sigma))
	}
	return Profile{sigma: m.Select(p.sigma)}, nil
}

package stellar

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownMode is returned when a mode string is not recognized.
var ErrUnknownMode = errors.New("stellar: unknown spectral mode")

// Mode selects the spectrograph resolution mode.
type Mode string

const (
	// ModeLow is the low-resolution mode.
	ModeLow Mode = "lr"
	// ModeMedium is the medium-resolution mode.
	ModeMedium Mode = "mr"
)

// ParseMode converts s into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLow, ModeMedium:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Arm identifies one of the two disjoint wavelength segments of the
// instrument and of the synthetic grid.
type Arm int

const (
	ArmBlue Arm = iota
	ArmRed
)

// Arms lists the arms in increasing wavelength order.
var Arms = [...]Arm{ArmBlue, ArmRed}

func (a Arm) String() string {
	switch a {
	case ArmBlue:
		return "blue"
	case ArmRed:
		return "red"
	default:
		return fmt.Sprintf("arm(%d)", int(a))
	}
}

// Params is the atmospheric parameter vector.
type Params struct {
	Teff    float64 `json:"teff"`
	Logg    float64 `json:"logg"`
	FeH     float64 `json:"feh"`
	AlphaFe float64 `json:"alphafe"`
}

// WithTeff returns a copy of p with Teff replaced.
func (p Params) WithTeff(v float64) Params { p.Teff = v; return p }

// WithLogg returns a copy of p with Logg replaced.
func (p Params) WithLogg(v float64) Params { p.Logg = v; return p }

// WithFeH returns a copy of p with FeH replaced.
func (p Params) WithFeH(v float64) Params { p.FeH = v; return p }

// WithAlphaFe returns a copy of p with AlphaFe replaced.
func (p Params) WithAlphaFe(v float64) Params { p.AlphaFe = v; return p }

// IsFinite reports whether every component is a finite number.
func (p Params) IsFinite() bool {
	for _, v := range [...]float64{p.Teff, p.Logg, p.FeH, p.AlphaFe} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (p Params) String() string {
	return fmt.Sprintf("Teff=%.1f logg=%.3f [Fe/H]=%.3f [alpha/Fe]=%.3f", p.Teff, p.Logg, p.FeH, p.AlphaFe)
}

// Uncertainties holds one-sigma errors for each parameter.
type Uncertainties struct {
	Teff    float64 `json:"tefferr"`
	Logg    float64 `json:"loggerr"`
	FeH     float64 `json:"feherr"`
	AlphaFe float64 `json:"alphafeerr"`
}

// Interval is a closed range [Lo, Hi].
type Interval struct {
	Lo float64
	Hi float64
}

// Contains reports whether v lies inside the closed interval.
func (r Interval) Contains(v float64) bool { return v >= r.Lo && v <= r.Hi }

// Valid reports whether the interval is non-empty and finite.
func (r Interval) Valid() bool {
	return !math.IsNaN(r.Lo) && !math.IsNaN(r.Hi) && !math.IsInf(r.Lo, 0) && !math.IsInf(r.Hi, 0) && r.Lo < r.Hi
}

// Bounds constrains each parameter of a fit.
type Bounds struct {
	Teff    Interval
	Logg    Interval
	FeH     Interval
	AlphaFe Interval
}

// DefaultBounds returns the box spanned by the synthetic grids.
func DefaultBounds() Bounds {
	return Bounds{
		Teff:    Interval{Lo: 3500, Hi: 8000},
		Logg:    Interval{Lo: 0, Hi: 5},
		FeH:     Interval{Lo: -4.5, Hi: 0},
		AlphaFe: Interval{Lo: -0.8, Hi: 1.2},
	}
}

// Validate checks that every interval is usable.
func (b Bounds) Validate() error {
	for _, c := range []struct {
		name string
		r    Interval
	}{
		{"teff", b.Teff},
		{"logg", b.Logg},
		{"feh", b.FeH},
		{"alphafe", b.AlphaFe},
	} {
		if !c.r.Valid() {
			return fmt.Errorf("stellar: invalid %s bounds [%v, %v]", c.name, c.r.Lo, c.r.Hi)
		}
	}
	return nil
}

// Contains reports whether every component of p lies within the bounds.
func (b Bounds) Contains(p Params) bool {
	return b.Teff.Contains(p.Teff) && b.Logg.Contains(p.Logg) &&
		b.FeH.Contains(p.FeH) && b.AlphaFe.Contains(p.AlphaFe)
}

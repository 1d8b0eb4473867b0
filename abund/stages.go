package abund

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-abund/lsq"
	"github.com/cwbudde/algo-abund/resolution"
	"github.com/cwbudde/algo-abund/spectrum"
	"github.com/cwbudde/algo-abund/stellar"
	"github.com/cwbudde/algo-abund/synth"
)

// param names one component of stellar.Params.
type param int

const (
	paramTeff param = iota
	paramLogg
	paramFeH
	paramAlphaFe
)

func (p param) get(v stellar.Params) float64 {
	switch p {
	case paramTeff:
		return v.Teff
	case paramLogg:
		return v.Logg
	case paramFeH:
		return v.FeH
	default:
		return v.AlphaFe
	}
}

func (p param) set(v stellar.Params, x float64) stellar.Params {
	switch p {
	case paramTeff:
		return v.WithTeff(x)
	case paramLogg:
		return v.WithLogg(x)
	case paramFeH:
		return v.WithFeH(x)
	default:
		return v.WithAlphaFe(x)
	}
}

func (p param) bounds(b stellar.Bounds) stellar.Interval {
	switch p {
	case paramTeff:
		return b.Teff
	case paramLogg:
		return b.Logg
	case paramFeH:
		return b.FeH
	default:
		return b.AlphaFe
	}
}

// fitData is the normalized observation seen through one mask.
type fitData struct {
	name  string
	wvl   []float64
	flux  []float64
	sigma []float64
	prof  resolution.Profile
}

// anchor is the photometric pseudo-pixel constraining Teff.
type anchor struct {
	value float64
	sigma float64
}

// newAnchor scales the photometric error by sqrt(flex/n).
func newAnchor(teff, teffErr, flex float64, n int) *anchor {
	return &anchor{value: teff, sigma: teffErr * math.Sqrt(flex/float64(n))}
}

// stages evaluates the fits of one solve. Its only mutable state is the
// provider's synthetic cache.
type stages struct {
	cfg      Config
	spec     *spectrum.Spectrum
	provider *synth.Provider
	matcher  Matcher
	profile  resolution.Profile
}

// data normalizes the pixels of m with the continuum cont.
func (st *stages) data(name string, m spectrum.Mask, cont []float64) (fitData, error) {
	wvl, flux, sigma, err := st.spec.Normalized(m, cont)
	if err != nil {
		return fitData{}, fmt.Errorf("abund: %s mask: %w", name, err)
	}
	prof, err := st.profile.Select(m)
	if err != nil {
		return fitData{}, fmt.Errorf("abund: %s mask: %w", name, err)
	}
	return fitData{name: name, wvl: wvl, flux: flux, sigma: sigma, prof: prof}, nil
}

// model returns the synthetic spectrum at p matched to wvl.
func (st *stages) model(wvl []float64, prof resolution.Profile, p stellar.Params) ([]float64, error) {
	mw, mf, err := st.provider.Synthesize(wvl, p)
	if err != nil {
		return nil, err
	}
	return st.matcher.Match(mw, mf, wvl, prof)
}

// fit solves for the free parameters of base on d. With an anchor, the
// first free parameter must be Teff and its trial value is prepended to
// the model.
func (st *stages) fit(d *fitData, a *anchor, base stellar.Params, free ...param) (stellar.Params, *lsq.Result, error) {
	p0 := make([]float64, len(free))
	lower := make([]float64, len(free))
	upper := make([]float64, len(free))
	for i, f := range free {
		p0[i] = f.get(base)
		b := f.bounds(st.cfg.Bounds)
		lower[i], upper[i] = b.Lo, b.Hi
	}
	at := func(x []float64) stellar.Params {
		p := base
		for i, f := range free {
			p = f.set(p, x[i])
		}
		return p
	}

	prob := lsq.Problem{Y: d.flux, Sigma: d.sigma, Lower: lower, Upper: upper}
	prob.Model = func(x []float64) ([]float64, error) {
		return st.model(d.wvl, d.prof, at(x))
	}
	if a != nil {
		prob.Y = append([]float64{a.value}, d.flux...)
		prob.Sigma = append([]float64{a.sigma}, d.sigma...)
		prob.Model = func(x []float64) ([]float64, error) {
			p := at(x)
			m, err := st.model(d.wvl, d.prof, p)
			if err != nil {
				return nil, err
			}
			return append([]float64{p.Teff}, m...), nil
		}
	}

	tol := st.cfg.Tolerance
	res, err := lsq.Solve(prob, p0, lsq.WithTolerances(tol, tol, tol), lsq.WithMaxIterations(st.cfg.MaxSolverIterations))
	if err != nil {
		return stellar.Params{}, nil, err
	}
	return at(res.Params), &res, nil
}

// fitTeffFeH is the temperature and metallicity fit, warm-started from
// prev and holding its [alpha/Fe]. Logg is fitted last when free.
func (st *stages) fitTeffFeH(prev stellar.Params, d *fitData, a *anchor) (stellar.Params, *lsq.Result, error) {
	free := []param{paramTeff, paramFeH}
	if st.cfg.FitLogg {
		free = append(free, paramLogg)
	}
	p, res, err := st.fit(d, a, prev, free...)
	if err != nil {
		return stellar.Params{}, nil, fmt.Errorf("abund: teff/feh fit: %w", err)
	}
	return p, res, nil
}

// fitAlpha fits [alpha/Fe] from the seed value with everything else held.
func (st *stages) fitAlpha(p stellar.Params, d *fitData) (stellar.Params, *lsq.Result, error) {
	p, res, err := st.fit(d, nil, p.WithAlphaFe(st.cfg.Seed.AlphaFe), paramAlphaFe)
	if err != nil {
		return stellar.Params{}, nil, fmt.Errorf("abund: alpha fit: %w", err)
	}
	return p, res, nil
}

// fitFeH fits [Fe/H] from the seed value with everything else held.
func (st *stages) fitFeH(p stellar.Params, d *fitData) (stellar.Params, *lsq.Result, error) {
	p, res, err := st.fit(d, nil, p.WithFeH(st.cfg.Seed.FeH), paramFeH)
	if err != nil {
		return stellar.Params{}, nil, fmt.Errorf("abund: feh fit: %w", err)
	}
	return p, res, nil
}

// bestSynth returns the model at p on every observed pixel.
func (st *stages) bestSynth(p stellar.Params) ([]float64, error) {
	m, err := st.model(st.spec.Wavelength, st.profile, p)
	if err != nil {
		return nil, fmt.Errorf("abund: best-fit spectrum: %w", err)
	}
	return m, nil
}

package abund

import (
	"testing"

	"github.com/cwbudde/algo-abund/internal/testutil"
	"github.com/cwbudde/algo-abund/mask"
	"github.com/cwbudde/algo-abund/resolution"
	"github.com/cwbudde/algo-abund/spectrum"
	"github.com/cwbudde/algo-abund/stellar"
	"github.com/cwbudde/algo-abund/synth"
)

var truth = stellar.Params{Teff: 4800, Logg: 1.5, FeH: -1.2, AlphaFe: 0.3}

// staticMasks returns a precomputed mask set.
type staticMasks mask.Set

func (m staticMasks) LoadMasks(*spectrum.Spectrum, stellar.Mode, string) (mask.Set, error) {
	return mask.Set(m), nil
}

type fixture struct {
	cfg   Config
	grid  *testutil.ToyGrid
	spec  *spectrum.Spectrum
	masks mask.Set
	cont  []float64
}

type fixtureOptions struct {
	noise    float64 // relative flux noise; 0 keeps the spectrum exact
	seed     int64
	teffErr  float64
	withIons bool // add logg-sensitive lines to the metallicity mask
}

// newFixture observes the toy grid at truth on 4140-4560 A with 0.5 A
// pixels. Each mask carries a line-free guard window at both ends, at least
// 8 A from any line, so the model trimmed to a mask sees flat continuum at
// its edges. Without ions the metallicity mask holds 120 pixels and the
// alpha mask 40.
func newFixture(t *testing.T, o fixtureOptions) *fixture {
	t.Helper()
	if o.teffErr == 0 {
		o.teffErr = 150
	}
	cfg := DefaultConfig(stellar.ModeMedium)
	cfg.BluePath, cfg.RedPath = "blue", "red"

	wvl := testutil.Grid(4140, 4560, 0.5)
	cont := make([]float64, len(wvl))
	for i, w := range wvl {
		cont[i] = 1000 * (1 + 1e-4*(w-4300))
	}

	// Evaluate the exact model through the production path on a separate
	// grid so the solver's grid starts with no recorded calls.
	prof, err := resolution.NewProfile(wvl, cfg.Resolution)
	if err != nil {
		t.Fatal(err)
	}
	prov, err := synth.NewProvider(testutil.NewToyGrid(), wvl, synth.WithArms(cfg.arms()...))
	if err != nil {
		t.Fatal(err)
	}
	mw, mf, err := prov.Synthesize(wvl, truth)
	if err != nil {
		t.Fatal(err)
	}
	model, err := resolution.NewMatcher().Match(mw, mf, wvl, prof)
	if err != nil {
		t.Fatal(err)
	}

	sigma := o.noise
	if sigma == 0 {
		sigma = 0.01
	}
	var eps []float64
	if o.noise > 0 {
		eps = testutil.DeterministicGaussian(o.seed, o.noise, len(wvl))
	}
	spec := &spectrum.Spectrum{
		ID:         "toy",
		Wavelength: wvl,
		Flux:       make([]float64, len(wvl)),
		Ivar:       make([]float64, len(wvl)),
		Photometry: spectrum.Photometry{TeffPhot: truth.Teff, TeffPhotErr: o.teffErr, LoggPhot: ptr(truth.Logg)},
	}
	for i := range wvl {
		f := model[i]
		if eps != nil {
			f += eps[i]
		}
		spec.Flux[i] = cont[i] * f
		spec.Ivar[i] = 1 / (cont[i] * cont[i] * sigma * sigma)
	}

	lines := testutil.DefaultLines()
	inRange := func(l testutil.Line) bool { return l.Center < 4520 }
	feLine := func(l testutil.Line) bool {
		return inRange(l) && !l.Alpha && (o.withIons || !l.Ion)
	}
	alphaLine := func(l testutil.Line) bool { return inRange(l) && l.Alpha }

	// 19 lines of 6 pixels plus two 3-pixel guards.
	fe := &mask.Definition{Windows: []mask.Window{{Lo: 4141, Hi: 4142}}}
	for _, w := range testutil.Windows(lines, 0, feLine) {
		fe.Windows = append(fe.Windows, mask.Window{Lo: w[0] - 1.25, Hi: w[1] + 1.75})
	}
	fe.Windows = append(fe.Windows, mask.Window{Lo: 4540, Hi: 4541})
	// 9 lines of 4 pixels plus two 2-pixel guards.
	alpha := &mask.Definition{Windows: []mask.Window{{Lo: 4141.5, Hi: 4142}}}
	for _, w := range testutil.Windows(lines, 0, alphaLine) {
		alpha.Windows = append(alpha.Windows, mask.Window{Lo: w[0] - 1.25, Hi: w[1] + 0.75})
	}
	alpha.Windows = append(alpha.Windows, mask.Window{Lo: 4540.5, Hi: 4541})
	set := mask.Set{
		Metallicity: mask.Construct(spec, fe),
		Alpha:       mask.Construct(spec, alpha),
		General:     mask.Construct(spec, nil),
	}

	return &fixture{cfg: cfg, grid: testutil.NewToyGrid(), spec: spec, masks: set, cont: cont}
}

func (f *fixture) solver(t *testing.T, opts ...Option) *Solver {
	t.Helper()
	base := []Option{
		WithNormalizer(continuumFixed(f.cont)),
		WithRefiner(keepContinuum{}),
		WithMaskProvider(staticMasks(f.masks)),
	}
	s, err := NewSolver(f.cfg, f.grid, append(base, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func (f *fixture) stages(t *testing.T) *stages {
	t.Helper()
	prof, err := resolution.NewProfile(f.spec.Wavelength, f.cfg.Resolution)
	if err != nil {
		t.Fatal(err)
	}
	prov, err := synth.NewProvider(f.grid, f.masks.General.Select(f.spec.Wavelength), synth.WithArms(f.cfg.arms()...))
	if err != nil {
		t.Fatal(err)
	}
	return &stages{cfg: f.cfg, spec: f.spec, provider: prov, matcher: resolution.NewMatcher(), profile: prof}
}

func ptr(v float64) *float64 { return &v }

// continuumFixed hands out a copy of a known continuum.
type continuumFixed []float64

func (c continuumFixed) Normalize(*spectrum.Spectrum) ([]float64, error) {
	return append([]float64(nil), c...), nil
}

// keepContinuum leaves the continuum unchanged.
type keepContinuum struct{}

func (keepContinuum) Refine(s *spectrum.Spectrum, _ []float64) ([]float64, error) {
	return append([]float64(nil), s.Continuum...), nil
}

// flipContinuum alternately raises and lowers the continuum by 2%, which
// keeps the loop from ever settling.
type flipContinuum struct{ calls int }

func (f *flipContinuum) Refine(s *spectrum.Spectrum, _ []float64) ([]float64, error) {
	f.calls++
	scale := 1.02
	if f.calls%2 == 0 {
		scale = 1 / 1.02
	}
	out := make([]float64, len(s.Continuum))
	for i, c := range s.Continuum {
		out[i] = c * scale
	}
	return out, nil
}

package abund

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/cwbudde/algo-abund/continuum"
	"github.com/cwbudde/algo-abund/internal/logging"
	"github.com/cwbudde/algo-abund/lsq"
	"github.com/cwbudde/algo-abund/mask"
	"github.com/cwbudde/algo-abund/photometry"
	"github.com/cwbudde/algo-abund/resolution"
	"github.com/cwbudde/algo-abund/spectrum"
	"github.com/cwbudde/algo-abund/stellar"
	"github.com/cwbudde/algo-abund/synth"
)

var (
	// ErrNoGrid is returned by NewSolver without an interpolator.
	ErrNoGrid = errors.New("abund: nil grid interpolator")
	// ErrNoLogg is returned when logg is fixed but the prior has none.
	ErrNoLogg = errors.New("abund: no photometric logg for a fixed-gravity fit")
)

// Option configures a Solver.
type Option func(*Solver)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logr.Logger) Option {
	return func(s *Solver) { s.logger = l }
}

// WithPrior replaces the photometric prior.
func WithPrior(p PhotometricPrior) Option {
	return func(s *Solver) {
		if p != nil {
			s.prior = p
		}
	}
}

// WithNormalizer replaces the initial continuum estimator.
func WithNormalizer(n ContinuumNormalizer) Option {
	return func(s *Solver) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithRefiner replaces the continuum refinement.
func WithRefiner(r ContinuumRefiner) Option {
	return func(s *Solver) {
		if r != nil {
			s.refiner = r
		}
	}
}

// WithMatcher replaces the resolution matcher.
func WithMatcher(m Matcher) Option {
	return func(s *Solver) {
		if m != nil {
			s.matcher = m
		}
	}
}

// WithMaskProvider replaces the mask provider.
func WithMaskProvider(m MaskProvider) Option {
	return func(s *Solver) {
		if m != nil {
			s.masks = m
		}
	}
}

// Solver measures stellar parameters. It is safe for concurrent use when
// its collaborators are.
type Solver struct {
	cfg        Config
	grid       synth.Interpolator
	prior      PhotometricPrior
	normalizer ContinuumNormalizer
	refiner    ContinuumRefiner
	matcher    Matcher
	masks      MaskProvider
	logger     logr.Logger
}

// NewSolver validates cfg and returns a Solver reading spectra from grid.
func NewSolver(cfg Config, grid synth.Interpolator, opts ...Option) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if grid == nil {
		return nil, ErrNoGrid
	}
	s := &Solver{
		cfg:        cfg,
		grid:       grid,
		prior:      photometry.NewPrior(),
		normalizer: continuum.NewNormalizer(),
		refiner:    continuum.NewRefiner(),
		matcher:    resolution.NewMatcher(),
		masks:      mask.NewProvider(),
		logger:     logr.Discard(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Config returns the solver configuration.
func (s *Solver) Config() Config { return s.cfg }

// Result is the outcome of one solve.
type Result struct {
	Params        stellar.Params
	Uncertainties stellar.Uncertainties
	Converged     bool
	// Iterations is the number of continuum loop passes.
	Iterations int
	// History holds the iterate of every pass.
	History []stellar.Params
	// Synth is the final model on the observed wavelengths.
	Synth []float64
	// Continuum is the last refined continuum.
	Continuum  []float64
	CacheStats map[stellar.Arm]synth.Stats
}

// ConvergeFlag returns 1 for a converged loop and 0 otherwise.
func (r *Result) ConvergeFlag() int {
	if r.Converged {
		return 1
	}
	return 0
}

// Apply writes the result and the final continuum onto s.
func (r *Result) Apply(s *spectrum.Spectrum) {
	s.Apply(spectrum.Result{
		Params:        r.Params,
		Uncertainties: r.Uncertainties,
		ConvergeFlag:  r.ConvergeFlag(),
		Iterations:    r.Iterations,
		Synth:         append([]float64(nil), r.Synth...),
	}, r.Continuum)
}

// Solve fits spec. It stores the initial and the refined continuum on
// spec as the loop progresses; call Result.Apply to store the parameters.
// When Solve fails, both continuum fields are put back to their values on
// entry.
func (s *Solver) Solve(spec *spectrum.Spectrum) (res *Result, err error) {
	cfg := s.cfg
	log := s.logger.WithValues("spectrum", spec.ID)

	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("abund: %w", err)
	}
	initialCont, cont0 := spec.InitialContinuum, spec.Continuum
	defer func() {
		if err != nil {
			spec.InitialContinuum, spec.Continuum = initialCont, cont0
		}
	}()
	est, err := s.prior.Estimate(spec, cfg.DistanceModulus, cfg.DistanceModulusErr)
	if err != nil {
		return nil, fmt.Errorf("abund: photometric prior: %w", err)
	}
	seed, err := s.seed(est)
	if err != nil {
		return nil, err
	}

	masks, err := s.masks.LoadMasks(spec, cfg.Mode, cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("abund: masks: %w", err)
	}
	for name, m := range map[string]spectrum.Mask{"metallicity": masks.Metallicity, "alpha": masks.Alpha} {
		if len(m) != spec.Len() || m.Count() == 0 {
			return nil, fmt.Errorf("abund: %s mask: %w", name, spectrum.ErrEmptyMask)
		}
	}

	profile, err := resolution.NewProfile(spec.Wavelength, cfg.Resolution)
	if err != nil {
		return nil, fmt.Errorf("abund: %w", err)
	}
	provider, err := synth.NewProvider(s.grid, masks.General.Select(spec.Wavelength),
		synth.WithArms(cfg.arms()...), synth.WithKeyQuantum(cfg.KeyQuantum))
	if err != nil {
		return nil, fmt.Errorf("abund: %w", err)
	}
	log.V(logging.DEBUG).Info("solve started", "arms", provider.Arms(), "metallicityPixels", masks.Metallicity.Count(),
		"alphaPixels", masks.Alpha.Count(), "teffPhot", est.Teff, "teffPhotErr", est.TeffErr, "fitLogg", cfg.FitLogg)

	cont, err := s.normalizer.Normalize(spec)
	if err != nil {
		return nil, fmt.Errorf("abund: initial continuum: %w", err)
	}
	if len(cont) != spec.Len() {
		return nil, fmt.Errorf("abund: initial continuum: %w", spectrum.ErrLengthMismatch)
	}
	spec.InitialContinuum = cont
	spec.Continuum = append([]float64(nil), cont...)

	st := &stages{cfg: cfg, spec: spec, provider: provider, matcher: s.matcher, profile: profile}
	anchorFor := func(n int) *anchor { return newAnchor(est.Teff, est.TeffErr, cfg.FlexFactor, n) }

	state := NewConvergenceState(cfg.Thresholds, cfg.FitLogg, seed)
	var (
		teffFit *lsq.Result
		history []stellar.Params
	)
	for !state.Done(cfg.MaxIterations) {
		pass := state.Iteration + 1
		metal, err := st.data("metallicity", masks.Metallicity, spec.Continuum)
		if err != nil {
			return nil, err
		}
		alpha, err := st.data("alpha", masks.Alpha, spec.Continuum)
		if err != nil {
			return nil, err
		}

		a, resA, err := st.fitTeffFeH(state.Previous, &metal, anchorFor(len(metal.wvl)))
		if err != nil {
			return nil, fmt.Errorf("%w (iteration %d)", err, pass)
		}
		b, resB, err := st.fitAlpha(a, &alpha)
		if err != nil {
			return nil, fmt.Errorf("%w (iteration %d)", err, pass)
		}
		model, err := st.bestSynth(b)
		if err != nil {
			return nil, err
		}
		refined, err := s.refiner.Refine(spec, model)
		if err != nil {
			return nil, fmt.Errorf("abund: continuum refinement (iteration %d): %w", pass, err)
		}
		if len(refined) != spec.Len() {
			return nil, fmt.Errorf("abund: continuum refinement: %w", spectrum.ErrLengthMismatch)
		}
		spec.Continuum = refined

		state = state.Advance(b)
		teffFit = resA
		history = append(history, b)
		log.V(logging.DEBUG).Info("continuum iteration", "iteration", pass, "converged", state.Converged,
			"teff", b.Teff, "logg", b.Logg, "feh", b.FeH, "alphafe", b.AlphaFe,
			"teffFitCost", resA.Cost, "alphaFitCost", resB.Cost)
	}
	if !state.Converged {
		log.Info("maximum number of continuum iterations reached", "iterations", state.Iteration, "converged", false)
	}

	final, errs, err := s.finalize(st, state.Previous, masks, spec.Continuum)
	if err != nil {
		return nil, err
	}
	errs.Teff = teffFit.StdErr(0)
	if cfg.FitLogg {
		errs.Logg = teffFit.StdErr(len(teffFit.Params) - 1)
	}

	synthFinal, err := st.bestSynth(final)
	if err != nil {
		return nil, err
	}

	log.Info("solve finished", "converged", state.Converged, "iterations", state.Iteration,
		"teff", final.Teff, "logg", final.Logg, "feh", final.FeH, "alphafe", final.AlphaFe,
		"tefferr", errs.Teff, "loggerr", errs.Logg, "feherr", errs.FeH, "alphafeerr", errs.AlphaFe)

	return &Result{
		Params:        final,
		Uncertainties: errs,
		Converged:     state.Converged,
		Iterations:    state.Iteration,
		History:       history,
		Synth:         synthFinal,
		Continuum:     append([]float64(nil), spec.Continuum...),
		CacheStats:    provider.Stats(),
	}, nil
}

// seed returns the starting iterate.
func (s *Solver) seed(est photometry.Estimate) (stellar.Params, error) {
	cfg := s.cfg
	if cfg.Initial != nil {
		return *cfg.Initial, nil
	}
	p := cfg.Seed.WithTeff(est.Teff)
	if !cfg.FitLogg {
		if !est.HasLogg() {
			return stellar.Params{}, ErrNoLogg
		}
		p = p.WithLogg(est.Logg)
	}
	return p, nil
}

// finalize refits [Fe/H], then [alpha/Fe] and [Fe/H] again, each from its
// seed with everything else held at the latest values.
func (s *Solver) finalize(st *stages, p stellar.Params, masks mask.Set, cont []float64) (stellar.Params, stellar.Uncertainties, error) {
	var errs stellar.Uncertainties
	metal, err := st.data("metallicity", masks.Metallicity, cont)
	if err != nil {
		return p, errs, err
	}
	alpha, err := st.data("alpha", masks.Alpha, cont)
	if err != nil {
		return p, errs, err
	}

	fa, _, err := st.fitFeH(p, &metal)
	if err != nil {
		return p, errs, fmt.Errorf("%w (final pass 1)", err)
	}
	fb, resB, err := st.fitAlpha(fa, &alpha)
	if err != nil {
		return p, errs, fmt.Errorf("%w (final pass 2)", err)
	}
	fc, resC, err := st.fitFeH(fb, &metal)
	if err != nil {
		return p, errs, fmt.Errorf("%w (final pass 3)", err)
	}
	errs.AlphaFe = resB.StdErr(0)
	errs.FeH = resC.StdErr(0)

	s.logger.V(logging.DEBUG).Info("final fits", "spectrum", st.spec.ID, "feh1", fa.FeH, "alphafe", fb.AlphaFe, "feh", fc.FeH)
	return fc, errs, nil
}

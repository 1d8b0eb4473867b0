// Package batch fits many spectra concurrently with one shared solver.
package batch

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-abund/abund"
	"github.com/cwbudde/algo-abund/internal/metrics"
	"github.com/cwbudde/algo-abund/spectrum"
)

// ErrNoSolver is returned by New without a solver.
var ErrNoSolver = errors.New("batch: nil solver")

// Solver fits one spectrum.
type Solver interface {
	Solve(spec *spectrum.Spectrum) (*abund.Result, error)
}

// Outcome is the result of one job. Err is set when the solve failed; the
// other jobs are unaffected.
type Outcome struct {
	JobID    string
	Spectrum *spectrum.Spectrum
	Result   *abund.Result
	Err      error
	Elapsed  time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds the number of concurrent solves. Values below one
// select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(r *Runner) { r.workers = n }
}

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithRecorder records every outcome on rec.
func WithRecorder(rec *metrics.Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithApply writes each successful result back onto its spectrum.
func WithApply(apply bool) Option {
	return func(r *Runner) { r.apply = apply }
}

// Runner distributes spectra over a bounded worker pool.
type Runner struct {
	solver   Solver
	workers  int
	logger   logr.Logger
	recorder *metrics.Recorder
	apply    bool
}

// New returns a Runner using solver.
func New(solver Solver, opts ...Option) (*Runner, error) {
	if solver == nil {
		return nil, ErrNoSolver
	}
	r := &Runner{solver: solver, logger: logr.Discard()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.workers < 1 {
		r.workers = runtime.GOMAXPROCS(0)
	}
	return r, nil
}

// Run fits specs and returns one outcome per spectrum in input order.
// Cancelling ctx stops scheduling new jobs; the returned error is then
// ctx.Err() and unscheduled outcomes carry it.
func (r *Runner) Run(ctx context.Context, specs []*spectrum.Spectrum) ([]Outcome, error) {
	runID := uuid.New().String()
	log := r.logger.WithValues("run", runID)
	log.Info("batch started", "spectra", len(specs), "workers", r.workers)

	out := make([]Outcome, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, spec := range specs {
		out[i] = Outcome{JobID: uuid.New().String(), Spectrum: spec}
		if err := gctx.Err(); err != nil {
			out[i].Err = err
			continue
		}
		g.Go(func() error {
			r.runOne(gctx, log, &out[i])
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, o := range out {
		if o.Err != nil {
			failed++
		}
	}
	log.Info("batch finished", "spectra", len(specs), "failed", failed)
	return out, ctx.Err()
}

func (r *Runner) runOne(ctx context.Context, log logr.Logger, o *Outcome) {
	if err := ctx.Err(); err != nil {
		o.Err = err
		return
	}
	id := ""
	if o.Spectrum != nil {
		id = o.Spectrum.ID
	}
	log = log.WithValues("job", o.JobID, "spectrum", id)

	start := time.Now()
	var res *abund.Result
	var err error
	if o.Spectrum == nil {
		err = errors.New("batch: nil spectrum")
	} else {
		res, err = r.solver.Solve(o.Spectrum)
	}
	o.Elapsed = time.Since(start)

	if err != nil {
		o.Err = err
		log.Error(err, "solve failed")
		if r.recorder != nil {
			r.recorder.ObserveFailure(o.Elapsed)
		}
		return
	}
	o.Result = res
	if r.apply {
		res.Apply(o.Spectrum)
	}
	if r.recorder != nil {
		r.recorder.ObserveResult(res, o.Elapsed)
	}
	log.Info("solve finished", "params", res.Params.String(), "converged", res.Converged,
		"iterations", res.Iterations, "elapsed", o.Elapsed)
}

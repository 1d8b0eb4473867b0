package lsq

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-abund/dsp/core"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrOptimizerFailure is returned when a solve exhausts its iteration
	// budget before any tolerance is met.
	ErrOptimizerFailure = errors.New("lsq: optimizer failure")
	// ErrInvalidProblem is returned for inconsistent problem definitions.
	ErrInvalidProblem = errors.New("lsq: invalid problem")
	// ErrModel is returned when the model yields the wrong number of
	// values or non-finite values.
	ErrModel = errors.New("lsq: bad model output")
)

// FailureError describes a solve that ran out of iterations.
type FailureError struct {
	Iterations int
	Cost       float64
	Params     []float64
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("lsq: no convergence after %d iterations (cost %g at %v)", e.Iterations, e.Cost, e.Params)
}

// Unwrap returns ErrOptimizerFailure.
func (e *FailureError) Unwrap() error { return ErrOptimizerFailure }

// Func evaluates the model at params. It returns one prediction per
// observation.
type Func func(params []float64) ([]float64, error)

// Problem is a weighted least-squares problem with box constraints.
type Problem struct {
	Model Func
	Y     []float64
	Sigma []float64
	Lower []float64
	Upper []float64
}

func (p *Problem) validate(n int) error {
	switch {
	case p.Model == nil:
		return fmt.Errorf("%w: nil model", ErrInvalidProblem)
	case len(p.Y) == 0:
		return fmt.Errorf("%w: no observations", ErrInvalidProblem)
	case len(p.Sigma) != len(p.Y):
		return fmt.Errorf("%w: %d sigmas for %d observations", ErrInvalidProblem, len(p.Sigma), len(p.Y))
	case n == 0:
		return fmt.Errorf("%w: no parameters", ErrInvalidProblem)
	case len(p.Lower) != n || len(p.Upper) != n:
		return fmt.Errorf("%w: bounds for %d/%d of %d parameters", ErrInvalidProblem, len(p.Lower), len(p.Upper), n)
	case !core.AllFinite(p.Y) || !core.AllFinite(p.Sigma):
		return fmt.Errorf("%w: non-finite observations or sigmas", ErrInvalidProblem)
	}
	for i, s := range p.Sigma {
		if !(s > 0) {
			return fmt.Errorf("%w: observation %d has sigma=%v", ErrInvalidProblem, i, s)
		}
	}
	for j := range n {
		if !(p.Lower[j] < p.Upper[j]) {
			return fmt.Errorf("%w: bounds [%v, %v] for parameter %d", ErrInvalidProblem, p.Lower[j], p.Upper[j], j)
		}
	}
	return nil
}

// Status tells which criterion stopped a successful solve.
type Status int

const (
	FTolConverged Status = iota + 1
	XTolConverged
	GTolConverged
)

func (s Status) String() string {
	switch s {
	case FTolConverged:
		return "ftol"
	case XTolConverged:
		return "xtol"
	case GTolConverged:
		return "gtol"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the outcome of a successful solve.
type Result struct {
	Params      []float64
	Cov         *mat.SymDense
	Cost        float64
	Iterations  int
	Evaluations int
	Status      Status
}

// StdErr returns the one-sigma uncertainty of parameter i.
func (r *Result) StdErr(i int) float64 {
	return math.Sqrt(math.Max(r.Cov.At(i, i), 0))
}

type settings struct {
	ftol, xtol, gtol float64
	maxIter          int
	lambda           float64
}

func defaultSettings() settings {
	return settings{ftol: 1e-10, xtol: 1e-10, gtol: 1e-10, maxIter: 200, lambda: 1e-3}
}

// Option configures Solve.
type Option func(*settings)

// WithTolerances sets the relative cost, step and projected gradient
// tolerances. Non-positive values keep the defaults of 1e-10.
func WithTolerances(ftol, xtol, gtol float64) Option {
	return func(s *settings) {
		if ftol > 0 {
			s.ftol = ftol
		}
		if xtol > 0 {
			s.xtol = xtol
		}
		if gtol > 0 {
			s.gtol = gtol
		}
	}
}

// WithMaxIterations bounds the number of trial steps (default 200).
func WithMaxIterations(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxIter = n
		}
	}
}

// Solve minimizes the weighted residuals of p starting from p0, which is
// clamped into the bounds first.
func Solve(p Problem, p0 []float64, opts ...Option) (Result, error) {
	cfg := defaultSettings()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	n := len(p0)
	if err := p.validate(n); err != nil {
		return Result{}, err
	}

	s := &solver{p: &p, m: len(p.Y), n: n}
	x := make([]float64, n)
	for j := range x {
		x[j] = core.Clamp(p0[j], p.Lower[j], p.Upper[j])
	}

	r, err := s.residuals(x)
	if err != nil {
		return Result{}, err
	}
	cost := 0.5 * floats.Dot(r, r)
	jac, err := s.jacobian(x, r)
	if err != nil {
		return Result{}, err
	}

	lambda := cfg.lambda
	a := mat.NewSymDense(n, nil)
	g := mat.NewVecDense(n, nil)
	damped := mat.NewSymDense(n, nil)
	dx := mat.NewVecDense(n, nil)
	xNew := make([]float64, n)
	step := make([]float64, n)

	var status Status
	iter := 0
	for status == 0 {
		a.SymOuterK(1, jac.T())
		g.MulVec(jac.T(), mat.NewVecDense(s.m, r))

		if s.projectedGradientNorm(x, g) <= cfg.gtol {
			status = GTolConverged
			break
		}

		for {
			if iter >= cfg.maxIter {
				return Result{}, &FailureError{Iterations: iter, Cost: cost, Params: x}
			}
			iter++

			damped.CopySym(a)
			for j := range n {
				d := a.At(j, j)
				if d <= 0 {
					d = 1
				}
				damped.SetSym(j, j, a.At(j, j)+lambda*d)
			}
			var chol mat.Cholesky
			if !chol.Factorize(damped) {
				lambda *= 10
				continue
			}
			if err := chol.SolveVecTo(dx, g); err != nil {
				lambda *= 10
				continue
			}
			for j := range n {
				xNew[j] = core.Clamp(x[j]-dx.AtVec(j), p.Lower[j], p.Upper[j])
				step[j] = xNew[j] - x[j]
			}
			small := floats.Norm(step, 2) <= cfg.xtol*(cfg.xtol+floats.Norm(x, 2))

			rNew, err := s.residuals(xNew)
			if err != nil {
				return Result{}, err
			}
			costNew := 0.5 * floats.Dot(rNew, rNew)
			if costNew >= cost {
				lambda *= 10
				if small {
					status = XTolConverged
					break
				}
				continue
			}

			reduction := cost - costNew
			copy(x, xNew)
			r, cost = rNew, costNew
			if jac, err = s.jacobian(x, r); err != nil {
				return Result{}, err
			}
			lambda = math.Max(lambda/10, 1e-12)
			switch {
			case reduction <= cfg.ftol*(cost+reduction):
				status = FTolConverged
			case small:
				status = XTolConverged
			}
			break
		}
	}

	return Result{
		Params:      x,
		Cov:         covariance(jac),
		Cost:        cost,
		Iterations:  iter,
		Evaluations: s.evals,
		Status:      status,
	}, nil
}

type solver struct {
	p     *Problem
	m, n  int
	evals int
}

// residuals returns (model - y) / sigma.
func (s *solver) residuals(x []float64) ([]float64, error) {
	s.evals++
	pred, err := s.p.Model(x)
	if err != nil {
		return nil, err
	}
	if len(pred) != s.m {
		return nil, fmt.Errorf("%w: %d values for %d observations", ErrModel, len(pred), s.m)
	}
	r := make([]float64, s.m)
	for i, v := range pred {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: value %d is %v at %v", ErrModel, i, v, x)
		}
		r[i] = (v - s.p.Y[i]) / s.p.Sigma[i]
	}
	return r, nil
}

// jacobian returns the forward-difference Jacobian of the residuals.
func (s *solver) jacobian(x, r []float64) (*mat.Dense, error) {
	jac := mat.NewDense(s.m, s.n, nil)
	xh := append([]float64(nil), x...)
	for j := range s.n {
		h := math.Sqrt(eps) * math.Max(1, math.Abs(x[j]))
		if x[j]+h > s.p.Upper[j] {
			h = -h
		}
		xh[j] = x[j] + h
		rh, err := s.residuals(xh)
		if err != nil {
			return nil, err
		}
		xh[j] = x[j]
		for i := range s.m {
			jac.Set(i, j, (rh[i]-r[i])/h)
		}
	}
	return jac, nil
}

// projectedGradientNorm returns the infinity norm of the gradient with
// components pointing out of active bounds removed.
func (s *solver) projectedGradientNorm(x []float64, g *mat.VecDense) float64 {
	norm := 0.0
	for j := range s.n {
		gj := g.AtVec(j)
		if (x[j] <= s.p.Lower[j] && gj > 0) || (x[j] >= s.p.Upper[j] && gj < 0) {
			continue
		}
		norm = math.Max(norm, math.Abs(gj))
	}
	return norm
}

// covariance returns pinv(J^T J) from the SVD of J, dropping singular
// values below the usual rank threshold.
func covariance(jac *mat.Dense) *mat.SymDense {
	m, n := jac.Dims()
	cov := mat.NewSymDense(n, nil)

	var svd mat.SVD
	if !svd.Factorize(jac, mat.SVDThin) {
		for j := range n {
			cov.SetSym(j, j, math.Inf(1))
		}
		return cov
	}
	sv := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)

	threshold := eps * float64(max(m, n)) * sv[0]
	for i := range n {
		for j := i; j < n; j++ {
			sum := 0.0
			for k, sk := range sv {
				if sk > threshold {
					sum += v.At(i, k) * v.At(j, k) / (sk * sk)
				}
			}
			cov.SetSym(i, j, sum)
		}
	}
	return cov
}

const eps = 2.220446049250313e-16

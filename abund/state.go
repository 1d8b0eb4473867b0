package abund

import "github.com/cwbudde/algo-abund/stellar"

// ConvergenceState tracks the continuum loop.
type ConvergenceState struct {
	Thresholds Thresholds
	FitLogg    bool
	// Iteration counts completed loop passes.
	Iteration int
	Converged bool
	// Previous is the iterate the next pass starts from.
	Previous stellar.Params
}

// NewConvergenceState starts a loop at seed.
func NewConvergenceState(t Thresholds, fitLogg bool, seed stellar.Params) ConvergenceState {
	return ConvergenceState{Thresholds: t, FitLogg: fitLogg, Previous: seed}
}

// Advance records the iterate produced by one pass.
func (c ConvergenceState) Advance(next stellar.Params) ConvergenceState {
	c.Iteration++
	c.Converged = c.Thresholds.Within(c.Previous, next, c.FitLogg)
	c.Previous = next
	return c
}

// Done reports whether the loop should stop after at most maxIter passes.
func (c ConvergenceState) Done(maxIter int) bool {
	return c.Converged || c.Iteration >= maxIter
}

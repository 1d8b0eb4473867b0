package interp

import (
	"errors"
	"sort"
)

var (
	// ErrTooShort is returned when a table has fewer than two samples.
	ErrTooShort = errors.New("interp: need at least two samples")
	// ErrLengthMismatch is returned when x and y differ in length.
	ErrLengthMismatch = errors.New("interp: x and y length mismatch")
	// ErrNotIncreasing is returned when x is not strictly increasing.
	ErrNotIncreasing = errors.New("interp: x must be strictly increasing")
	// ErrInvalidStep is returned for a non-positive grid step.
	ErrInvalidStep = errors.New("interp: step must be > 0")
)

// Linear2 interpolates between y0 and y1 at fraction frac in [0,1].
func Linear2(frac, y0, y1 float64) float64 {
	return y0 + frac*(y1-y0)
}

// Table is a validated piecewise-linear function.
type Table struct {
	x []float64
	y []float64
}

// NewTable validates x and y and wraps them without copying.
func NewTable(x, y []float64) (*Table, error) {
	if len(x) != len(y) {
		return nil, ErrLengthMismatch
	}
	if len(x) < 2 {
		return nil, ErrTooShort
	}
	for i := 1; i < len(x); i++ {
		if !(x[i] > x[i-1]) {
			return nil, ErrNotIncreasing
		}
	}
	return &Table{x: x, y: y}, nil
}

// At evaluates the table at xq, clamping outside the tabulated range.
func (t *Table) At(xq float64) float64 {
	n := len(t.x)
	if xq <= t.x[0] {
		return t.y[0]
	}
	if xq >= t.x[n-1] {
		return t.y[n-1]
	}
	// First index with x[i] >= xq; 1 <= i <= n-1 here.
	i := sort.SearchFloat64s(t.x, xq)
	if t.x[i] == xq {
		return t.y[i]
	}
	x0, x1 := t.x[i-1], t.x[i]
	return Linear2((xq-x0)/(x1-x0), t.y[i-1], t.y[i])
}

// ResampleTo evaluates the table at every xq and writes into dst.
func (t *Table) ResampleTo(dst, xq []float64) error {
	if len(dst) != len(xq) {
		return ErrLengthMismatch
	}
	for i, v := range xq {
		dst[i] = t.At(v)
	}
	return nil
}

// Uniform resamples (x, y) onto n points start, start+step, ... and returns
// both the grid and the values.
func Uniform(x, y []float64, start, step float64, n int) ([]float64, []float64, error) {
	if !(step > 0) {
		return nil, nil, ErrInvalidStep
	}
	t, err := NewTable(x, y)
	if err != nil {
		return nil, nil, err
	}
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = start + float64(i)*step
	}
	vals := make([]float64, n)
	_ = t.ResampleTo(vals, grid)
	return grid, vals, nil
}

package continuum

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-abund/spectrum"
)

var (
	// ErrTooFewPixels is returned when an arm has fewer usable pixels than
	// the lowest usable polynomial needs.
	ErrTooFewPixels = errors.New("continuum: too few usable pixels")
	// ErrNonPositive is returned when a fitted continuum is not positive.
	ErrNonPositive = errors.New("continuum: non-positive continuum")
)

type config struct {
	degree     int
	low, high  float64
	iterations int
	split      float64
}

// Option configures a Normalizer or Refiner.
type Option func(*config)

// WithDegree sets the polynomial degree per arm.
func WithDegree(d int) Option {
	return func(c *config) {
		if d >= 0 {
			c.degree = d
		}
	}
}

// WithClip sets the lower and upper rejection thresholds in standard
// deviations of the residuals.
func WithClip(low, high float64) Option {
	return func(c *config) {
		if low > 0 {
			c.low = low
		}
		if high > 0 {
			c.high = high
		}
	}
}

// WithIterations bounds the number of clipping passes.
func WithIterations(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.iterations = n
		}
	}
}

// WithSplit sets the wavelength separating the blue and red arms.
func WithSplit(w float64) Option {
	return func(c *config) {
		if w > 0 {
			c.split = w
		}
	}
}

func newConfig(base config, opts []Option) config {
	for _, opt := range opts {
		if opt != nil {
			opt(&base)
		}
	}
	return base
}

// fitArms fits y(wvl) with weights w separately below and above the split.
// Pixels with use[i] false never enter a fit but receive a continuum value.
func (c config) fitArms(wvl, y, w []float64, use spectrum.Mask) ([]float64, error) {
	out := make([]float64, len(wvl))
	start := 0
	for start < len(wvl) {
		end := start
		blue := wvl[start] < c.split
		for end < len(wvl) && (wvl[end] < c.split) == blue {
			end++
		}
		if err := c.fitSegment(wvl[start:end], y[start:end], w[start:end], use[start:end], out[start:end]); err != nil {
			return nil, fmt.Errorf("continuum: arm [%g, %g]: %w", wvl[start], wvl[end-1], err)
		}
		start = end
	}
	return out, nil
}

// fitSegment runs the clipped polynomial fit of one arm into dst.
func (c config) fitSegment(x, y, w []float64, use spectrum.Mask, dst []float64) error {
	keep := append(spectrum.Mask(nil), use...)
	n := keep.Count()
	if n == 0 {
		for i := range dst {
			dst[i] = 1
		}
		return nil
	}
	degree := min(c.degree, n-1)

	lo, hi := x[0], x[len(x)-1]
	basis := legendreBasis(x, lo, hi, degree)

	resid := make([]float64, 0, n)
	for iter := 0; iter < c.iterations; iter++ {
		coef, err := weightedFit(basis, y, w, keep)
		if err != nil {
			return err
		}
		evaluate(basis, coef, dst)

		resid = resid[:0]
		for i, k := range keep {
			if k {
				resid = append(resid, y[i]-dst[i])
			}
		}
		std := stat.StdDev(resid, nil)
		if !(std > 0) {
			break
		}

		changed := false
		next := 0
		for i, u := range use {
			r := y[i] - dst[i]
			k := u && r > -c.low*std && r < c.high*std
			if k != keep[i] {
				changed = true
			}
			keep[i] = k
			if k {
				next++
			}
		}
		if !changed || next <= degree {
			break
		}
	}

	for i, u := range use {
		if u && !(dst[i] > 0) {
			return fmt.Errorf("%w: %v at %g", ErrNonPositive, dst[i], x[i])
		}
	}
	return nil
}

// legendreBasis evaluates P_0..P_degree at x mapped from [lo, hi] to [-1, 1].
func legendreBasis(x []float64, lo, hi float64, degree int) *mat.Dense {
	b := mat.NewDense(len(x), degree+1, nil)
	scale := 1.0
	if hi > lo {
		scale = 2 / (hi - lo)
	}
	for i, xi := range x {
		t := (xi-lo)*scale - 1
		prev, cur := 1.0, t
		b.Set(i, 0, 1)
		if degree >= 1 {
			b.Set(i, 1, t)
		}
		for k := 1; k < degree; k++ {
			next := (float64(2*k+1)*t*cur - float64(k)*prev) / float64(k+1)
			prev, cur = cur, next
			b.Set(i, k+1, cur)
		}
	}
	return b
}

// weightedFit solves the weighted linear least-squares problem over the
// kept rows of basis.
func weightedFit(basis *mat.Dense, y, w []float64, keep spectrum.Mask) (*mat.VecDense, error) {
	rows := keep.Indices()
	_, cols := basis.Dims()
	if len(rows) < cols {
		return nil, fmt.Errorf("%w: %d pixels for %d coefficients", ErrTooFewPixels, len(rows), cols)
	}

	a := mat.NewDense(len(rows), cols, nil)
	b := mat.NewVecDense(len(rows), nil)
	for r, i := range rows {
		sw := math.Sqrt(w[i])
		for j := range cols {
			a.Set(r, j, sw*basis.At(i, j))
		}
		b.SetVec(r, sw*y[i])
	}

	var coef mat.VecDense
	if err := coef.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("continuum: polynomial fit: %w", err)
	}
	return &coef, nil
}

func evaluate(basis *mat.Dense, coef *mat.VecDense, dst []float64) {
	v := mat.NewVecDense(len(dst), dst)
	v.MulVec(basis, coef)
}

// Package window generates the line-spread kernels used to degrade
// synthetic spectra to instrumental resolution.
package window

import "math"

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeGauss
)

// Option configures window generation.
type Option func(*config)

type config struct {
	alpha float64
}

func defaultConfig() config {
	return config{alpha: 1}
}

// WithAlpha configures the shape parameter of parametric windows.
// For TypeGauss the window value at the edges is 2^(-alpha^2).
func WithAlpha(v float64) Option {
	return func(c *config) {
		if v >= 0 {
			c.alpha = v
		}
	}
}

// Generate returns window coefficients of the given length.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	if length == 1 {
		out[0] = 1
		return out
	}
	for i := range out {
		x := samplePosition(i, length)
		out[i] = evalWindow(t, x, cfg)
	}

	return out
}

// Gaussian returns Gaussian window coefficients.
func Gaussian(size int, alpha float64, opts ...Option) ([]float64, error) {
	if size <= 0 || alpha <= 0 {
		return nil, validateGauss(size, alpha)
	}

	return Generate(TypeGauss, size, append(opts, WithAlpha(alpha))...), nil
}

// GaussianKernel returns a unit-sum Gaussian kernel with standard deviation
// sigma (in samples), truncated at truncate*sigma on each side. The kernel
// length is always odd so it can be centered on a sample.
func GaussianKernel(sigma, truncate float64) ([]float64, error) {
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return nil, ErrInvalidSigma
	}
	if !(truncate > 0) {
		return nil, ErrInvalidTruncate
	}

	half := int(math.Ceil(truncate * sigma))
	if half < 1 {
		return []float64{1}, nil
	}

	alpha := float64(half) / (sigma * math.Sqrt(2*math.Ln2))
	k, err := Gaussian(2*half+1, alpha)
	if err != nil {
		return nil, err
	}

	normalize(k)
	return k, nil
}

func normalize(coeffs []float64) {
	sum := 0.0
	for _, v := range coeffs {
		sum += v
	}
	if sum == 0 {
		return
	}
	for i := range coeffs {
		coeffs[i] /= sum
	}
}

func evalWindow(t Type, x float64, cfg config) float64 {
	if x < 0 {
		x = 0
	}

	if x > 1 {
		x = 1
	}

	switch t {
	case TypeGauss:
		v := (2*x - 1) * cfg.alpha
		return math.Exp(-math.Ln2 * v * v)
	default:
		return 1
	}
}

func samplePosition(n, size int) float64 {
	if size <= 1 {
		return 0
	}

	return float64(n) / float64(size-1)
}

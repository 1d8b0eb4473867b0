package window

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSigma is returned for a non-positive or non-finite width.
	ErrInvalidSigma = errors.New("window: sigma must be finite and > 0")
	// ErrInvalidTruncate is returned for a non-positive truncation radius.
	ErrInvalidTruncate = errors.New("window: truncate must be > 0")
)

func validateLength(size int) error {
	if size <= 0 {
		return fmt.Errorf("window size must be > 0: %d", size)
	}
	return nil
}

func validateGauss(size int, alpha float64) error {
	if size <= 0 {
		return validateLength(size)
	}
	if alpha <= 0 {
		return fmt.Errorf("gauss alpha must be > 0: %f", alpha)
	}
	return nil
}

package conv_test

import (
	"fmt"

	"github.com/cwbudde/algo-abund/dsp/conv"
)

func ExampleDirect() {
	signal := []float64{1, 2, 3, 4, 5, 4, 3, 2, 1}
	kernel := []float64{0.25, 0.5, 0.25}

	result, _ := conv.Direct(signal, kernel)

	fmt.Printf("Output length: %d\n", len(result))
	fmt.Printf("First few values: %.2f, %.2f, %.2f\n", result[0], result[1], result[2])

	// Output:
	// Output length: 11
	// First few values: 0.25, 1.00, 2.00
}

func ExampleSmooth() {
	// A continuum-normalized flux with a single absorption pixel.
	flux := []float64{1, 1, 1, 0.4, 1, 1, 1}
	smooth, _ := conv.Smooth(flux, []float64{0.25, 0.5, 0.25})

	fmt.Printf("%.2f %.2f %.2f\n", smooth[0], smooth[2], smooth[3])

	// Output:
	// 1.00 0.85 0.70
}

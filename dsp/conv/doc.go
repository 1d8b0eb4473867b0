// Package conv provides the linear convolution used to bring native-resolution
// synthetic spectra down to instrumental resolution.
//
// Two strategies are available:
//
//   - Direct convolution: O(N*M) time-domain convolution, best for short kernels
//   - Overlap-add (OLA): FFT-based block convolution for long kernels
//
// [Convolve] selects between them by kernel length. [Smooth] convolves a
// uniformly sampled signal with a normalized kernel and renormalizes the
// edges by the kernel mass that actually overlapped the signal, so a
// constant input stays constant up to the boundaries.
//
// # Usage
//
//	full, err := conv.Convolve(signal, kernel)             // length len(signal)+len(kernel)-1
//	same, err := conv.ConvolveMode(signal, kernel, conv.ModeSame)
//	smooth, err := conv.Smooth(flux, gaussian)             // edge-renormalized, same length
//
// For repeated convolution with the same kernel, create a reusable convolver:
//
//	c, err := conv.NewOverlapAdd(kernel, blockSize)
//	result, err := c.Process(signal)
package conv

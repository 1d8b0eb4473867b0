// Package interp resamples tabulated spectra onto new wavelength grids.
//
// Available methods:
//
//   - [Linear2]:  2-point linear interpolation between neighbouring samples
//   - [Linear]:   piecewise-linear resampling of a non-uniform table
//   - [Uniform]:  resampling onto an evenly spaced grid, used ahead of convolution
//
// Source abscissae must be strictly increasing. Query points outside the
// table take the nearest end value; nothing is extrapolated.
package interp

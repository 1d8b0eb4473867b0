// Package spectrum holds the observed one-dimensional spectrum consumed by
// the parameter solver: wavelength, flux, inverse variance and continuum
// samples, the photometric inputs attached to the object, and the fitted
// results written back after a solve.
//
// A [Mask] selects pixels; [Spectrum.Normalized] turns a mask and a
// continuum estimate into the flux and uncertainty arrays handed to the
// nonlinear fits. Spectra are exchanged as JSON documents ([Read], [Write]).
package spectrum

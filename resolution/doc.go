// Package resolution degrades native-resolution synthetic spectra to the
// instrumental resolution of an observation.
//
// A [Profile] is the per-pixel Gaussian width (sigma = FWHM/2.35) of the
// line-spread function, built once from the spectral mode's [Table] and the
// observed wavelength grid. [Matcher.Match] convolves a model with that
// profile and resamples it onto target wavelengths. Because the profile is a
// per-pixel array, the subset matching the target pixels must be passed with
// every call ([Profile.Select]).
//
// Pixels sharing one width are smoothed together: the model is resampled
// onto a uniform grid, convolved with a truncated Gaussian through
// [conv.Smooth], and linearly interpolated at the targets.
package resolution

// Package synth assembles native-resolution synthetic spectra from the
// blue and red arms of a synthetic grid.
//
// A [Provider] is bound to one observed spectrum: at construction it decides
// which arms the observation covers, and every [Provider.Synthesize] call
// interpolates only those arms. Each arm keeps its own [Cache] keyed on the
// parameter tuple, so finite-difference Jacobians that revisit a parameter
// vector do not interpolate the grid twice.
//
// Cache keys are exact float64 tuples unless [WithKeyQuantum] is given.
// Exact keys only hit when the optimizer reproduces a vector bit for bit;
// quantized keys hit more often at the cost of returning the spectrum of a
// neighbouring vector.
//
// A Provider and its caches belong to a single solve and are not safe for
// concurrent use.
package synth

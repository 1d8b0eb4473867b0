// Package continuum estimates the continuum of an observed spectrum.
//
// Both estimators fit a low-order Legendre polynomial per arm with
// iterative sigma clipping. [Normalizer] fits the observed flux directly,
// rejecting absorption more aggressively than emission, and provides the
// starting continuum. [Refiner] fits the ratio of the flux to a
// continuum-normalized model, so absorption lines present in the model no
// longer bias the estimate.
package continuum

// Package abund measures Teff, logg, [Fe/H] and [alpha/Fe] of an observed
// spectrum by fitting it against a synthetic grid.
//
// [Solver.Solve] runs a continuum feedback loop. Each pass fits Teff and
// [Fe/H] (and logg when free) on the metallicity mask, with the
// photometric temperature injected as an extra anchor sample, then fits
// [alpha/Fe] on the alpha mask, synthesizes the best-fit spectrum and
// refines the continuum against it. The loop stops once no parameter moves
// by more than its threshold, or after Config.MaxIterations passes.
// Three single-parameter fits ([Fe/H], [alpha/Fe], [Fe/H]) then
// disentangle the metallicity from the alpha abundance.
//
// The anchor sample has uncertainty
//
//	sigma_anchor = TeffErr * sqrt(FlexFactor / N)
//
// where N is the number of metallicity pixels, so the photometric prior
// keeps a fixed weight relative to the whole spectrum.
//
// Every collaborator (photometric prior, continuum estimators, resolution
// matcher, mask provider, grid) is an interface with a default
// implementation from this module. A Solver holds no per-spectrum state;
// the synthetic caches live for one Solve call.
package abund

// Package stellar defines the atmospheric parameter vector shared by the
// synthesis, matching, and fitting packages.
//
// A [Params] value holds effective temperature (K), surface gravity (dex),
// metallicity [Fe/H] (dex) and alpha enhancement [alpha/Fe] (dex). [Bounds]
// describes the box the nonlinear fits are constrained to, and [Mode] selects
// the spectrograph resolution mode (low or medium resolution).
package stellar

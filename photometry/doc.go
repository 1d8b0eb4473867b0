// Package photometry derives the photometric temperature and gravity prior
// of a star.
//
// The temperature and its uncertainty come from the spectrum's photometric
// metadata. The surface gravity is taken from the metadata when present,
// otherwise it follows from the bolometric magnitude:
//
//	Mbol = m - dm + BC
//	logg = logg_sun + log10(M) + 4 log10(Teff/Teff_sun) + 0.4 (Mbol - Mbol_sun)
package photometry

// Package grid stores synthetic spectra on a parameter grid in SQLite and
// interpolates between them.
//
// Each [Node] is one continuum-normalized spectrum on a uniform wavelength
// sampling, keyed by its data path (one per arm) and its (Teff, logg,
// [Fe/H], [alpha/Fe]) grid point. [Interpolator] performs multilinear
// interpolation between the up to 16 nodes enclosing a parameter vector
// and implements synth.Interpolator.
//
// The store works with any database/sql handle opened with the
// modernc.org/sqlite driver:
//
//	db, err := sql.Open("sqlite", "grid.sqlite")
//	store, err := grid.NewStore(db)
package grid

// Package mask turns wavelength-window definitions into pixel selectors.
//
// Window definitions live in YAML files named <name>_<mode>.yaml under a
// root directory, one file per abundance channel and spectral mode:
//
//	name: mask_fe_pfs_final_py3
//	mode: mr
//	windows:
//	  - {lo: 4118.2, hi: 4119.4}
//	  - {lo: 4143.0, hi: 4144.6}
//
// [Construct] intersects the windows with the spectrum's usable pixels;
// [Provider.LoadMasks] builds the metallicity, alpha and general masks of a
// spectrum in one call.
package mask

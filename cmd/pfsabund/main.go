// Command pfsabund measures stellar parameters of PFS spectra against a
// synthetic grid.
//
// Usage:
//
//	pfsabund fit [flags] spectrum.json ...
//	pfsabund grid import --db grid.sqlite node.json ...
//	pfsabund grid info --db grid.sqlite
//	pfsabund masks [flags] [spectrum.json]
//
// Settings come from flags, from PFSABUND_* environment variables and from
// pfsabund.yaml in the working directory, in that order of precedence.
//
// Examples:
//
//	pfsabund fit --db grid.sqlite --mode mr --output out/ star1.json star2.json
//	PFSABUND_DM=18.5 pfsabund fit --fit-logg star.json
//	pfsabund masks --mode lr --root masks/ star.json
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

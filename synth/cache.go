package synth

import (
	"math"

	"github.com/cwbudde/algo-abund/stellar"
)

// Key identifies a cached spectrum: Teff, logg, [Fe/H], [alpha/Fe].
type Key [4]float64

// Stats counts cache lookups.
type Stats struct {
	Hits   int
	Misses int
}

type entry struct {
	wvl  []float64
	flux []float64
}

// Cache memoizes grid interpolations of one arm.
type Cache struct {
	quantum float64
	entries map[Key]entry
	stats   Stats
}

// NewCache returns an empty cache. A positive quantum rounds every
// parameter to a multiple of quantum before lookup; zero keys on exact
// values.
func NewCache(quantum float64) *Cache {
	if !(quantum > 0) {
		quantum = 0
	}
	return &Cache{quantum: quantum, entries: make(map[Key]entry)}
}

// KeyOf returns the lookup key of p.
func (c *Cache) KeyOf(p stellar.Params) Key {
	k := Key{p.Teff, p.Logg, p.FeH, p.AlphaFe}
	if c.quantum > 0 {
		for i, v := range k {
			k[i] = math.Round(v/c.quantum) * c.quantum
		}
	}
	return k
}

// Get returns the spectrum stored for p. The returned slices are shared
// with the cache and must not be modified.
func (c *Cache) Get(p stellar.Params) (wvl, flux []float64, ok bool) {
	e, ok := c.entries[c.KeyOf(p)]
	if !ok {
		c.stats.Misses++
		return nil, nil, false
	}
	c.stats.Hits++
	return e.wvl, e.flux, true
}

// Put stores a spectrum for p.
func (c *Cache) Put(p stellar.Params, wvl, flux []float64) {
	c.entries[c.KeyOf(p)] = entry{wvl: wvl, flux: flux}
}

// Len returns the number of cached spectra.
func (c *Cache) Len() int { return len(c.entries) }

// Stats returns the lookup counters.
func (c *Cache) Stats() Stats { return c.stats }

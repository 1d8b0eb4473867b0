package grid

import (
	"testing"

	"github.com/cwbudde/algo-abund/stellar"
)

func BenchmarkInterpolate(b *testing.B) {
	s := setupTestStore(b)
	fillGrid(b, s, "blue/")
	g := NewInterpolator(s)
	p := stellar.Params{Teff: 4321, Logg: 1.3, FeH: -1.7, AlphaFe: 0.1}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := g.Interpolate(p, "blue/", 4100, 4110); err != nil {
			b.Fatal(err)
		}
	}
}

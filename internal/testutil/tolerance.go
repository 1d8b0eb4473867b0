package testutil

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-abund/stellar"
)

// RequireSliceNearlyEqual fails t unless got and want have the same length
// and agree element-wise within eps.
func RequireSliceNearlyEqual(t testing.TB, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range got {
		if d := math.Abs(got[i] - want[i]); !(d <= eps) {
			t.Fatalf("[%d] = %v, want %v (|diff| %g > %g)", i, got[i], want[i], d, eps)
		}
	}
}

// RequireFinite fails t on the first NaN or infinite element.
func RequireFinite(t testing.TB, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("[%d] = %v, want finite", i, v)
		}
	}
}

// RequireWithin fails t unless |got-want| <= tol.
func RequireWithin(t testing.TB, name string, got, want, tol float64) {
	t.Helper()
	if !(math.Abs(got-want) <= tol) {
		t.Fatalf("%s = %v, want %v ± %v", name, got, want, tol)
	}
}

// RequireParamsWithin checks every stellar parameter against its own
// tolerance in tol.
func RequireParamsWithin(t testing.TB, got, want, tol stellar.Params) {
	t.Helper()
	RequireWithin(t, "Teff", got.Teff, want.Teff, tol.Teff)
	RequireWithin(t, "logg", got.Logg, want.Logg, tol.Logg)
	RequireWithin(t, "[Fe/H]", got.FeH, want.FeH, tol.FeH)
	RequireWithin(t, "[alpha/Fe]", got.AlphaFe, want.AlphaFe, tol.AlphaFe)
}

package resolution

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-abund/dsp/core"
	"github.com/cwbudde/algo-abund/internal/testutil"
	"github.com/cwbudde/algo-abund/spectrum"
	"github.com/cwbudde/algo-abund/stellar"
)

func TestDefaultTable(t *testing.T) {
	tests := []struct {
		mode stellar.Mode
		wvl  float64
		want float64
	}{
		{stellar.ModeMedium, 5000, 2.1},
		{stellar.ModeMedium, 6400, 2.1},
		{stellar.ModeMedium, 6600, 1.6},
		{stellar.ModeLow, 6400, 2.7},
		{stellar.ModeLow, 3800, 2.7}, // window is open
		{stellar.ModeLow, 5000, 2.1},
	}
	for _, tt := range tests {
		tab, err := DefaultTable(tt.mode)
		if err != nil {
			t.Fatal(err)
		}
		if got := tab.FWHM(tt.wvl); got != tt.want {
			t.Errorf("%s FWHM(%v) = %v, want %v", tt.mode, tt.wvl, got, tt.want)
		}
	}
	if _, err := DefaultTable("hr"); !errors.Is(err, stellar.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestNewProfile(t *testing.T) {
	tab, _ := DefaultTable(stellar.ModeMedium)
	p, err := NewProfile([]float64{4000, 6400, 6600, 8000}, tab)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{2.1 / 2.35, 2.1 / 2.35, 1.6 / 2.35, 1.6 / 2.35}
	testutil.RequireSliceNearlyEqual(t, p.Sigma(), want, 1e-15)

	sub, err := p.Select(spectrum.Mask{false, true, true, false})
	if err != nil {
		t.Fatal(err)
	}
	if sub.Len() != 2 || sub.At(0) != p.At(1) || sub.At(1) != p.At(2) {
		t.Fatalf("Select = %v", sub.Sigma())
	}
	if _, err := p.Select(spectrum.Mask{true}); err == nil {
		t.Fatal("expected mask length error")
	}
	if _, err := NewProfile(nil, Table{}); !errors.Is(err, ErrInvalidTable) {
		t.Fatalf("expected ErrInvalidTable, got %v", err)
	}
}

func TestProfileIsImmutable(t *testing.T) {
	sigma := []float64{1, 2}
	p := ProfileFromSigma(sigma)
	sigma[0] = 9
	got := p.Sigma()
	got[1] = 9
	if p.At(0) != 1 || p.At(1) != 2 {
		t.Fatalf("profile mutated: %v", p.Sigma())
	}
}

func TestMatchConstantModel(t *testing.T) {
	wvl := testutil.Grid(5000, 5100, 0.05)
	flux := testutil.DC(0.93, len(wvl))
	targets := testutil.Grid(5000.3, 5099.9, 0.7)
	prof := ProfileFromSigma(testutil.DC(0.9, len(targets)))

	got, err := NewMatcher().Match(wvl, flux, targets, prof)
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, got, testutil.DC(0.93, len(targets)), 1e-12)
}

// A Gaussian line of width w convolved with a Gaussian LSF of width s is a
// Gaussian of width sqrt(w^2+s^2) with the same equivalent width.
func TestMatchGaussianLine(t *testing.T) {
	const (
		center = 5050.0
		depth  = 0.05
		w      = 0.15
	)
	sigma := 1.6 * core.FWHMToSigma

	wvl := testutil.Grid(5000, 5100, 0.01)
	flux := make([]float64, len(wvl))
	for i, x := range wvl {
		d := (x - center) / w
		flux[i] = 1 - depth*math.Exp(-0.5*d*d)
	}
	targets := testutil.Grid(5040, 5060, 0.4)
	prof := ProfileFromSigma(testutil.DC(sigma, len(targets)))

	got, err := NewMatcher().Match(wvl, flux, targets, prof)
	if err != nil {
		t.Fatal(err)
	}

	width := math.Hypot(w, sigma)
	for i, x := range targets {
		d := (x - center) / width
		want := 1 - depth*w/width*math.Exp(-0.5*d*d)
		if math.Abs(got[i]-want) > 2e-5 {
			t.Fatalf("target %v: got %v, want %v", x, got[i], want)
		}
	}
}

// A stitched model with a finely sampled blue arm and a long coarse red arm
// is smoothed at each run's local sampling, not the model's mean spacing.
func TestMatchStitchedArmsKeepNativeSampling(t *testing.T) {
	const (
		center = 4250.0
		depth  = 0.05
		w      = 0.15
	)
	blue := testutil.Grid(4200, 4300, 0.01)
	red := testutil.Grid(4301, 9100, 1)
	wvl := append(append([]float64(nil), blue...), red...)
	flux := make([]float64, len(wvl))
	for i, x := range wvl {
		d := (x - center) / w
		flux[i] = 1 - depth*math.Exp(-0.5*d*d)
	}

	blueSigma := 1.6 * core.FWHMToSigma
	blueTargets := testutil.Grid(4240, 4260, 0.4)
	redTargets := testutil.Grid(6000, 6010, 1)
	targets := append(append([]float64(nil), blueTargets...), redTargets...)
	sigma := append(testutil.DC(blueSigma, len(blueTargets)), testutil.DC(2, len(redTargets))...)

	got, err := NewMatcher().Match(wvl, flux, targets, ProfileFromSigma(sigma))
	if err != nil {
		t.Fatal(err)
	}

	width := math.Hypot(w, blueSigma)
	for i, x := range blueTargets {
		d := (x - center) / width
		want := 1 - depth*w/width*math.Exp(-0.5*d*d)
		if math.Abs(got[i]-want) > 2e-5 {
			t.Fatalf("blue target %v: got %v, want %v", x, got[i], want)
		}
	}
	testutil.RequireSliceNearlyEqual(t, got[len(blueTargets):], testutil.DC(1, len(redTargets)), 1e-12)
}

func TestSpacing(t *testing.T) {
	wvl := []float64{0, 0.5, 1, 1.5, 2, 12, 22}
	tests := []struct {
		lo, hi, want float64
	}{
		{0, 2, 0.5},
		{0.2, 1.9, 0.5},
		{2, 22, 10},
		{12.5, 13, 22.0 / 6}, // no points inside
	}
	for _, tt := range tests {
		if got := spacing(wvl, tt.lo, tt.hi); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("spacing(%v, %v) = %v, want %v", tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestMatchRunsUseOwnWidth(t *testing.T) {
	wvl := testutil.Grid(6000, 7000, 0.05)
	flux := make([]float64, len(wvl))
	for i, x := range wvl {
		flux[i] = 1
		for _, c := range []float64{6200, 6800} {
			d := (x - c) / 0.1
			flux[i] -= 0.5 * math.Exp(-0.5*d*d)
		}
	}
	targets := []float64{6200, 6800}
	narrow, wide := 0.5, 1.5
	got, err := NewMatcher().Match(wvl, flux, targets, ProfileFromSigma([]float64{narrow, wide}))
	if err != nil {
		t.Fatal(err)
	}
	// Identical lines: the wider LSF leaves a shallower core.
	if !(got[1] > got[0]) {
		t.Fatalf("core depths %v, expected the wide run to be shallower", got)
	}
	for i, s := range []float64{narrow, wide} {
		want := 1 - 0.5*0.1/math.Hypot(0.1, s)
		if math.Abs(got[i]-want) > 1e-3 {
			t.Fatalf("run %d: got %v, want %v", i, got[i], want)
		}
	}
}

func TestMatchUnresolvedInterpolates(t *testing.T) {
	wvl := []float64{1, 2, 3, 4}
	flux := []float64{1, 3, 5, 7}
	got, err := NewMatcher().Match(wvl, flux, []float64{1.5, 3.25}, ProfileFromSigma([]float64{0.1, 0.1}))
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, got, []float64{2, 5.5}, 1e-12)
}

func TestMatchErrors(t *testing.T) {
	m := NewMatcher(WithTruncate(5), WithMinSamples(1))
	wvl := []float64{1, 2, 3}
	flux := []float64{1, 1, 1}
	if _, err := m.Match(wvl, flux, nil, Profile{}); !errors.Is(err, ErrNoTargets) {
		t.Fatalf("expected ErrNoTargets, got %v", err)
	}
	if _, err := m.Match(wvl, flux, []float64{1.5}, ProfileFromSigma([]float64{1, 1})); !errors.Is(err, ErrProfileMismatch) {
		t.Fatalf("expected ErrProfileMismatch, got %v", err)
	}
	if _, err := m.Match([]float64{1}, []float64{1}, []float64{1}, ProfileFromSigma([]float64{1})); err == nil {
		t.Fatal("expected error for single-sample model")
	}
}

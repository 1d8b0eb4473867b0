package testutil

import (
	"fmt"
	"math"
	"sync"

	"github.com/cwbudde/algo-abund/stellar"
)

// Line is one absorption feature of the analytic test grid.
type Line struct {
	Center     float64 // Angstrom
	Strength   float64 // line strength at Teff=5040 K, [Fe/H]=0
	Excitation float64 // eV; sets the Teff sensitivity
	Alpha      bool    // strength also scales with [alpha/Fe]
	Ion        bool    // strength also scales with logg
}

// DefaultLines returns a deterministic line list spanning both arms.
// Iron lines sit every 20 A, alpha lines every 40 A and ionized lines every
// 80 A, with excitation potentials cycling through 0-4 eV.
func DefaultLines() []Line {
	var lines []Line
	for i, c := 0, 4150.0; c < 9050; i, c = i+1, c+20 {
		lines = append(lines, Line{Center: c, Strength: 0.6 + 0.3*float64(i%3), Excitation: float64(i % 5)})
	}
	for i, c := 0, 4161.0; c < 9050; i, c = i+1, c+40 {
		lines = append(lines, Line{Center: c, Strength: 0.8, Excitation: float64((i + 2) % 5), Alpha: true})
	}
	for i, c := 0, 4167.0; c < 9050; i, c = i+1, c+80 {
		lines = append(lines, Line{Center: c, Strength: 0.7, Excitation: float64((i + 1) % 3), Ion: true})
	}
	return lines
}

// Windows returns [lo, hi] wavelength windows of the given half width
// around every line that keep accepts.
func Windows(lines []Line, halfWidth float64, keep func(Line) bool) [][2]float64 {
	var out [][2]float64
	for _, l := range lines {
		if keep(l) {
			out = append(out, [2]float64{l.Center - halfWidth, l.Center + halfWidth})
		}
	}
	return out
}

// IsIron selects neutral and ionized non-alpha lines.
func IsIron(l Line) bool { return !l.Alpha }

// IsAlpha selects alpha-element lines.
func IsAlpha(l Line) bool { return l.Alpha }

// ToyGrid is an analytic stand-in for an interpolated synthetic grid. It
// returns continuum-normalized spectra on a uniform native grid and counts
// how often each data path is requested.
type ToyGrid struct {
	Lines []Line
	Step  float64 // native sampling, Angstrom
	Width float64 // intrinsic Gaussian line width, Angstrom

	mu    sync.Mutex
	calls map[string]int
}

// NewToyGrid returns a grid with DefaultLines, 0.25 A sampling and 0.15 A
// intrinsic widths.
func NewToyGrid() *ToyGrid {
	return &ToyGrid{Lines: DefaultLines(), Step: 0.25, Width: 0.15}
}

// Interpolate evaluates the analytic model on [start, stop).
func (g *ToyGrid) Interpolate(p stellar.Params, path string, start, stop float64) ([]float64, []float64, error) {
	if !p.IsFinite() {
		return nil, nil, fmt.Errorf("toygrid: non-finite parameters %v", p)
	}
	if !(stop > start) {
		return nil, nil, fmt.Errorf("toygrid: empty range [%v, %v)", start, stop)
	}

	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]int)
	}
	g.calls[path]++
	g.mu.Unlock()

	wvl := Grid(start, stop, g.Step)
	flux := Ones(len(wvl))
	reach := 6 * g.Width
	for _, l := range g.Lines {
		if l.Center < start-reach || l.Center >= stop+reach {
			continue
		}
		depth := g.depth(l, p)
		lo := max(0, int(math.Floor((l.Center-reach-start)/g.Step)))
		hi := min(len(wvl), int(math.Ceil((l.Center+reach-start)/g.Step))+1)
		for i := lo; i < hi; i++ {
			d := (wvl[i] - l.Center) / g.Width
			flux[i] *= 1 - depth*math.Exp(-0.5*d*d)
		}
	}
	return wvl, flux, nil
}

func (g *ToyGrid) depth(l Line, p stellar.Params) float64 {
	logS := math.Log10(l.Strength) + 0.4*p.FeH + l.Excitation*(1-5040/p.Teff)
	if l.Alpha {
		logS += 0.4 * p.AlphaFe
	}
	if l.Ion {
		logS += 0.25 * (p.Logg - 2)
	}
	s := math.Pow(10, logS)
	return 0.9 * s / (1 + s)
}

// Calls reports how many interpolations were requested for path.
func (g *ToyGrid) Calls(path string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[path]
}

// TotalCalls reports the number of interpolations over all paths.
func (g *ToyGrid) TotalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}

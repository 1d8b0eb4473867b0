package grid

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cwbudde/algo-abund/stellar"
)

var (
	// ErrOutOfGrid is returned for parameters outside the grid axes.
	ErrOutOfGrid = errors.New("grid: parameters outside grid")
	// ErrIncompatibleNodes is returned when enclosing nodes are sampled
	// differently.
	ErrIncompatibleNodes = errors.New("grid: nodes differ in sampling")
)

// Interpolator interpolates spectra between the nodes of a Store. It is
// safe for concurrent use.
type Interpolator struct {
	store *Store

	mu   sync.Mutex
	axes map[string]Axes
}

// NewInterpolator returns an Interpolator over store.
func NewInterpolator(store *Store) *Interpolator {
	return &Interpolator{store: store, axes: make(map[string]Axes)}
}

// bracket is the enclosing pair of an axis value; w is the weight of hi.
type bracket struct {
	lo, hi, w float64
}

func locate(axis []float64, v float64) (bracket, error) {
	last := len(axis) - 1
	if !(v >= axis[0] && v <= axis[last]) {
		return bracket{}, fmt.Errorf("%w: %v not in [%v, %v]", ErrOutOfGrid, v, axis[0], axis[last])
	}
	i := sort.SearchFloat64s(axis, v)
	if axis[i] == v {
		return bracket{lo: v, hi: v}, nil
	}
	lo, hi := axis[i-1], axis[i]
	return bracket{lo: lo, hi: hi, w: (v - lo) / (hi - lo)}, nil
}

// Interpolate returns the spectrum at p on the sampling of path, restricted
// to wavelengths in [start, stop).
func (g *Interpolator) Interpolate(p stellar.Params, path string, start, stop float64) ([]float64, []float64, error) {
	ax, err := g.axesFor(path)
	if err != nil {
		return nil, nil, err
	}

	var br [4]bracket
	for d, c := range []struct {
		axis []float64
		v    float64
	}{
		{ax.Teff, p.Teff},
		{ax.Logg, p.Logg},
		{ax.FeH, p.FeH},
		{ax.AlphaFe, p.AlphaFe},
	} {
		if br[d], err = locate(c.axis, c.v); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	var (
		ref  *Node
		flux []float64
	)
	for corner := 0; corner < 16; corner++ {
		var v [4]float64
		weight := 1.0
		for d := range br {
			if corner&(1<<d) != 0 {
				v[d], weight = br[d].hi, weight*br[d].w
			} else {
				v[d], weight = br[d].lo, weight*(1-br[d].w)
			}
		}
		if weight == 0 {
			continue
		}

		n, err := g.store.Get(path, stellar.Params{Teff: v[0], Logg: v[1], FeH: v[2], AlphaFe: v[3]})
		if err != nil {
			return nil, nil, err
		}
		if ref == nil {
			ref = &n
			flux = make([]float64, len(n.Flux))
		} else if n.Start != ref.Start || n.Step != ref.Step || len(n.Flux) != len(ref.Flux) {
			return nil, nil, fmt.Errorf("%w: %v and %v", ErrIncompatibleNodes, ref.Params, n.Params)
		}
		for i, f := range n.Flux {
			flux[i] += weight * f
		}
	}

	wvl := ref.Wavelength()
	lo := sort.SearchFloat64s(wvl, start)
	hi := sort.SearchFloat64s(wvl, stop)
	return wvl[lo:hi], flux[lo:hi], nil
}

func (g *Interpolator) axesFor(path string) (Axes, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if ax, ok := g.axes[path]; ok {
		return ax, nil
	}
	ax, err := g.store.Axes(path)
	if err != nil {
		return Axes{}, err
	}
	g.axes[path] = ax
	return ax, nil
}

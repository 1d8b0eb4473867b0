package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-abund/abund"
	"github.com/cwbudde/algo-abund/internal/metrics"
	"github.com/cwbudde/algo-abund/spectrum"
	"github.com/cwbudde/algo-abund/stellar"
)

var errBad = errors.New("bad spectrum")

type fakeSolver struct {
	mu      sync.Mutex
	active  int
	maxSeen int
	calls   atomic.Int32
	gate    chan struct{}
}

func (f *fakeSolver) Solve(spec *spectrum.Spectrum) (*abund.Result, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.active++
	if f.active > f.maxSeen {
		f.maxSeen = f.active
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()
	if f.gate != nil {
		<-f.gate
	}
	if spec.ID == "bad" {
		return nil, errBad
	}
	return &abund.Result{
		Params:     stellar.Params{Teff: 5000, Logg: 2, FeH: -1, AlphaFe: 0.2},
		Converged:  true,
		Iterations: 2,
		Synth:      make([]float64, spec.Len()),
		Continuum:  make([]float64, spec.Len()),
	}, nil
}

func newSpec(id string) *spectrum.Spectrum {
	return &spectrum.Spectrum{
		ID:         id,
		Wavelength: []float64{5000, 5001},
		Flux:       []float64{1, 1},
		Ivar:       []float64{1, 1},
	}
}

func TestNewRequiresSolver(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoSolver)

	r, err := New(&fakeSolver{}, WithWorkers(0))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, r.workers, 1)
}

func TestRunReportsFailuresPerSpectrum(t *testing.T) {
	rec := metrics.NewRecorder()
	r, err := New(&fakeSolver{}, WithWorkers(2), WithRecorder(rec), WithApply(true))
	require.NoError(t, err)

	specs := []*spectrum.Spectrum{newSpec("a"), newSpec("bad"), newSpec("c")}
	out, err := r.Run(context.Background(), specs)
	require.NoError(t, err)
	require.Len(t, out, 3)

	ids := map[string]bool{}
	for i, o := range out {
		assert.Same(t, specs[i], o.Spectrum)
		assert.NotEmpty(t, o.JobID)
		assert.False(t, ids[o.JobID], "duplicate job id")
		ids[o.JobID] = true
	}
	assert.NoError(t, out[0].Err)
	assert.ErrorIs(t, out[1].Err, errBad)
	assert.Nil(t, out[1].Result)
	assert.NoError(t, out[2].Err)

	require.NotNil(t, specs[0].Result)
	assert.Equal(t, 5000.0, specs[0].Result.Params.Teff)
	assert.Equal(t, 1, specs[2].Result.ConvergeFlag)
	assert.Nil(t, specs[1].Result)

	reg := rec.Registry()
	n, err := testutil.GatherAndCount(reg, "pfsabund_solves_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRunBoundsWorkers(t *testing.T) {
	f := &fakeSolver{gate: make(chan struct{})}
	r, err := New(f, WithWorkers(2))
	require.NoError(t, err)

	specs := make([]*spectrum.Spectrum, 6)
	for i := range specs {
		specs[i] = newSpec("s")
	}
	done := make(chan struct{})
	go func() {
		_, _ = r.Run(context.Background(), specs)
		close(done)
	}()
	for range specs {
		f.gate <- struct{}{}
	}
	<-done

	assert.Equal(t, int32(6), f.calls.Load())
	assert.LessOrEqual(t, f.maxSeen, 2)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeSolver{}
	r, err := New(f)
	require.NoError(t, err)
	out, err := r.Run(ctx, []*spectrum.Spectrum{newSpec("a"), newSpec("b")})
	assert.ErrorIs(t, err, context.Canceled)
	for _, o := range out {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
	assert.Zero(t, f.calls.Load())
}

func TestRunNilSpectrum(t *testing.T) {
	r, err := New(&fakeSolver{})
	require.NoError(t, err)
	out, err := r.Run(context.Background(), []*spectrum.Spectrum{nil})
	require.NoError(t, err)
	assert.Error(t, out[0].Err)
}

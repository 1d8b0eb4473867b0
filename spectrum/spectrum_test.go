package spectrum

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-abund/stellar"
)

func newTestSpectrum() *Spectrum {
	return &Spectrum{
		ID:         "obj-1",
		Wavelength: []float64{5000, 5001, 5002, 5003},
		Flux:       []float64{2, 1, math.NaN(), 4},
		Ivar:       []float64{4, 1, 1, 0},
		Photometry: Photometry{TeffPhot: 4800, TeffPhotErr: 150},
	}
}

func TestValidate(t *testing.T) {
	s := newTestSpectrum()
	require.NoError(t, s.Validate())

	s.Ivar = s.Ivar[:2]
	assert.ErrorIs(t, s.Validate(), ErrLengthMismatch)

	s = newTestSpectrum()
	s.Wavelength[2] = 5000.5
	assert.ErrorIs(t, s.Validate(), ErrNotIncreasing)

	s = newTestSpectrum()
	s.Continuum = []float64{1}
	assert.ErrorIs(t, s.Validate(), ErrLengthMismatch)

	assert.ErrorIs(t, (&Spectrum{}).Validate(), ErrEmpty)
}

func TestGoodPixels(t *testing.T) {
	s := newTestSpectrum()
	assert.Equal(t, Mask{true, true, false, false}, s.GoodPixels())
}

func TestNormalized(t *testing.T) {
	s := newTestSpectrum()
	cont := []float64{2, 0.5, 1, 1}

	wvl, flux, sigma, err := s.Normalized(Mask{true, true, false, false}, cont)
	require.NoError(t, err)
	assert.Equal(t, []float64{5000, 5001}, wvl)
	assert.InDeltaSlice(t, []float64{1, 2}, flux, 1e-15)
	// sigma = (ivar*C^2)^-1/2: (4*4)^-1/2, (1*0.25)^-1/2
	assert.InDeltaSlice(t, []float64{0.25, 2}, sigma, 1e-15)

	_, _, _, err = s.Normalized(Mask{false, false, false, false}, cont)
	assert.ErrorIs(t, err, ErrEmptyMask)
	_, _, _, err = s.Normalized(Mask{true}, cont)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestMaskOps(t *testing.T) {
	m := Mask{false, true, true, false, true}
	assert.Equal(t, 3, m.Count())
	assert.Equal(t, []int{1, 2, 4}, m.Indices())
	assert.Equal(t, []float64{20, 30, 50}, m.Select([]float64{10, 20, 30, 40, 50}))
	assert.Equal(t, Mask{false, true, false, false, true}, m.And(Mask{true, true, false, true, true}))
}

func TestApply(t *testing.T) {
	s := newTestSpectrum()
	cont := []float64{1, 1, 1, 1}
	s.Apply(Result{
		Params:       stellar.Params{Teff: 4810, Logg: 1.2, FeH: -1.9, AlphaFe: 0.3},
		ConvergeFlag: 1,
	}, cont)
	require.NotNil(t, s.Result)
	assert.Equal(t, 4810.0, s.Result.Params.Teff)
	cont[0] = 7
	assert.Equal(t, 1.0, s.Continuum[0], "continuum must be copied")
}

func TestResultFieldAccess(t *testing.T) {
	r := Result{
		Params:        stellar.Params{Teff: 4810, Logg: 1.4},
		Uncertainties: stellar.Uncertainties{Teff: 40, Logg: 0.1},
	}
	assert.Equal(t, 4810.0, r.Params.Teff)
	assert.Equal(t, 40.0, r.Uncertainties.Teff)
	assert.Equal(t, 1.4, r.Params.Logg)
	assert.Equal(t, 0.1, r.Uncertainties.Logg)
}

func TestJSONRoundTrip(t *testing.T) {
	s := newTestSpectrum()
	s.Flux[2] = 3 // NaN is not representable in JSON
	logg := 1.4
	s.Photometry.LoggPhot = &logg
	s.Result = &Result{
		Params:        stellar.Params{Teff: 4810, Logg: 1.4, FeH: -1.9, AlphaFe: 0.3},
		Uncertainties: stellar.Uncertainties{Teff: 40, FeH: 0.05},
		ConvergeFlag:  1,
		Iterations:    4,
		Synth:         []float64{1, 1, 1, 1},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, s))
	for _, key := range []string{`"teff": 4810`, `"tefferr": 40`, `"feh": -1.9`, `"feherr": 0.05`, `"converge_flag": 1`} {
		assert.Contains(t, buf.String(), key)
	}

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestReadWriteFile(t *testing.T) {
	s := newTestSpectrum()
	s.Flux[2] = 3
	path := filepath.Join(t.TempDir(), "spec.json")
	require.NoError(t, Write(path, s))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, s.Wavelength, got.Wavelength)

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := newTestSpectrum()
	bad.Flux[2] = 3
	bad.Ivar = bad.Ivar[:1]
	require.NoError(t, Write(path, bad))
	_, err = Read(path)
	assert.True(t, errors.Is(err, ErrLengthMismatch))
}

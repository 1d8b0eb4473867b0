package mask

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-abund/spectrum"
	"github.com/cwbudde/algo-abund/stellar"
)

func testSpectrum() *spectrum.Spectrum {
	s := &spectrum.Spectrum{
		Wavelength: []float64{4100, 4101, 4102, 4103, 4104, 6500, 6501, 6502},
		Flux:       []float64{1, 1, math.NaN(), 1, 1, 1, 1, 1},
		Ivar:       []float64{1, 1, 1, 0, 1, 1, 1, 1},
	}
	return s
}

func TestConstruct(t *testing.T) {
	s := testSpectrum()

	general := Construct(s, nil)
	assert.Equal(t, spectrum.Mask{true, true, false, false, true, true, true, true}, general)

	d := &Definition{Windows: []Window{{Lo: 4100.5, Hi: 4103}, {Lo: 6501, Hi: 6501}}}
	got := Construct(s, d)
	// 4102 has NaN flux, 4103 zero ivar.
	assert.Equal(t, spectrum.Mask{false, true, false, false, false, false, true, false}, got)
}

func TestLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	d := &Definition{Name: "mask_fe_test", Mode: stellar.ModeMedium, Windows: []Window{{Lo: 4100, Hi: 4101.5}}}
	require.NoError(t, Write(root, d))
	assert.FileExists(t, filepath.Join(root, "mask_fe_test_mr.yaml"))

	got, err := Load("mask_fe_test", stellar.ModeMedium, root)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestLoadFillsNameAndMode(t *testing.T) {
	root := t.TempDir()
	body := "windows:\n  - {lo: 5000, hi: 5001}\n"
	require.NoError(t, os.WriteFile(Path(root, "custom", stellar.ModeLow), []byte(body), 0o644))

	got, err := Load("custom", stellar.ModeLow, root)
	require.NoError(t, err)
	assert.Equal(t, "custom", got.Name)
	assert.Equal(t, stellar.ModeLow, got.Mode)
	assert.Len(t, got.Windows, 1)
}

func TestLoadMissing(t *testing.T) {
	root := t.TempDir()
	_, err := Load(MetallicityName, stellar.ModeLow, root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingMaskFile))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	var mf *MissingFileError
	require.True(t, errors.As(err, &mf))
	assert.Equal(t, Path(root, MetallicityName, stellar.ModeLow), mf.Path)
}

func TestDecodeRejectsInvalidWindow(t *testing.T) {
	_, err := Decode(strings.NewReader("windows:\n  - {lo: 5001, hi: 5000}\n"))
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = Decode(strings.NewReader("windows: [unterminated"))
	assert.Error(t, err)
}

func TestProviderLoadMasks(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Write(root, &Definition{Name: "fe", Mode: stellar.ModeMedium, Windows: []Window{{Lo: 4099, Hi: 4101.5}}}))
	require.NoError(t, Write(root, &Definition{Name: "alpha", Mode: stellar.ModeMedium, Windows: []Window{{Lo: 6500, Hi: 6502}}}))

	s := testSpectrum()
	set, err := NewProvider(WithNames("fe", "alpha")).LoadMasks(s, stellar.ModeMedium, root)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Metallicity.Count())
	assert.Equal(t, 3, set.Alpha.Count())
	assert.Equal(t, 6, set.General.Count())

	_, err = NewProvider(WithNames("fe", "missing")).LoadMasks(s, stellar.ModeMedium, root)
	assert.ErrorIs(t, err, ErrMissingMaskFile)
}

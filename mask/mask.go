package mask

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-abund/spectrum"
	"github.com/cwbudde/algo-abund/stellar"
)

// Names of the window definitions used by the abundance fit.
const (
	MetallicityName = "mask_fe_pfs_final_py3"
	AlphaName       = "mask_alphafe_pfs_final_py3"
)

var (
	// ErrMissingMaskFile is returned when a definition file cannot be found.
	ErrMissingMaskFile = errors.New("mask: missing mask file")
	// ErrInvalidWindow is returned for a window with lo >= hi or NaN edges.
	ErrInvalidWindow = errors.New("mask: invalid window")
)

// MissingFileError reports the definition that could not be located.
type MissingFileError struct {
	Name string
	Mode stellar.Mode
	Path string
	Err  error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("mask: no %s definition for mode %s at %s", e.Name, e.Mode, e.Path)
}

// Unwrap returns ErrMissingMaskFile so callers can test with errors.Is.
func (e *MissingFileError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMissingMaskFile}
	}
	return []error{ErrMissingMaskFile, e.Err}
}

// Window is a closed wavelength interval in Angstrom.
type Window struct {
	Lo float64 `yaml:"lo"`
	Hi float64 `yaml:"hi"`
}

// Definition is the content of one mask file.
type Definition struct {
	Name    string       `yaml:"name"`
	Mode    stellar.Mode `yaml:"mode"`
	Windows []Window     `yaml:"windows"`
}

// Validate checks every window.
func (d *Definition) Validate() error {
	for i, w := range d.Windows {
		if !(w.Lo < w.Hi) {
			return fmt.Errorf("%w: %s window %d [%v, %v]", ErrInvalidWindow, d.Name, i, w.Lo, w.Hi)
		}
	}
	return nil
}

// Path returns the location of the definition name for mode under root.
func Path(root, name string, mode stellar.Mode) string {
	return filepath.Join(root, fmt.Sprintf("%s_%s.yaml", name, mode))
}

// Decode parses a definition and validates its windows.
func Decode(r io.Reader) (*Definition, error) {
	var d Definition
	if err := yaml.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("mask: decode: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Load reads the definition name for mode under root. A missing file yields
// a *MissingFileError.
func Load(name string, mode stellar.Mode, root string) (*Definition, error) {
	path := Path(root, name, mode)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &MissingFileError{Name: name, Mode: mode, Path: path, Err: err}
		}
		return nil, fmt.Errorf("mask: %w", err)
	}
	defer f.Close()

	d, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if d.Name == "" {
		d.Name = name
	}
	if d.Mode == "" {
		d.Mode = mode
	}
	return d, nil
}

// Write stores d under root using its name and mode.
func Write(root string, d *Definition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	b, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("mask: encode: %w", err)
	}
	return os.WriteFile(Path(root, d.Name, d.Mode), b, 0o644)
}

// Construct selects the usable pixels of s that fall inside any window of
// d. A nil d yields the general mask, which keeps every usable pixel.
// The wavelengths of s must be increasing.
func Construct(s *spectrum.Spectrum, d *Definition) spectrum.Mask {
	good := s.GoodPixels()
	if d == nil {
		return good
	}

	in := make(spectrum.Mask, s.Len())
	for _, w := range d.Windows {
		i := sort.SearchFloat64s(s.Wavelength, w.Lo)
		for ; i < len(s.Wavelength) && s.Wavelength[i] <= w.Hi; i++ {
			in[i] = true
		}
	}
	return good.And(in)
}

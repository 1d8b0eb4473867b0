package spectrum

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Decode reads a JSON spectrum from r and validates it.
func Decode(r io.Reader) (*Spectrum, error) {
	var s Spectrum
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("spectrum: decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Encode writes s to w as indented JSON.
func Encode(w io.Writer, s *Spectrum) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("spectrum: encode: %w", err)
	}
	return nil
}

// Read loads a spectrum from a JSON file.
func Read(path string) (*Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("spectrum: %w", err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Write stores s as a JSON file, replacing any existing file.
func Write(path string, s *Spectrum) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("spectrum: %w", err)
	}
	if err := Encode(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

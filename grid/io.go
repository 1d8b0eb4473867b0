package grid

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// DecodeNode reads one JSON node.
func DecodeNode(r io.Reader) (*Node, error) {
	var n Node
	if err := json.NewDecoder(r).Decode(&n); err != nil {
		return nil, fmt.Errorf("grid: decode node: %w", err)
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

// ReadNode reads a JSON node file.
func ReadNode(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	defer f.Close()

	n, err := DecodeNode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// Import reads node files and stores them, returning the number imported.
func Import(s *Store, files ...string) (int, error) {
	for i, file := range files {
		n, err := ReadNode(file)
		if err != nil {
			return i, err
		}
		if err := s.Put(*n); err != nil {
			return i, fmt.Errorf("%s: %w", file, err)
		}
	}
	return len(files), nil
}

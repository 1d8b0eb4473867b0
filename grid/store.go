package grid

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-abund/stellar"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
    path     TEXT    NOT NULL,
    teff     REAL    NOT NULL,
    logg     REAL    NOT NULL,
    feh      REAL    NOT NULL,
    alphafe  REAL    NOT NULL,
    start    REAL    NOT NULL,
    step     REAL    NOT NULL,
    n        INTEGER NOT NULL,
    flux     BLOB    NOT NULL,
    PRIMARY KEY (path, teff, logg, feh, alphafe)
);
CREATE INDEX IF NOT EXISTS idx_nodes_path ON nodes(path);
`

var (
	// ErrNodeNotFound is returned when a grid point has no spectrum.
	ErrNodeNotFound = errors.New("grid: node not found")
	// ErrInvalidNode is returned for nodes with bad sampling or flux.
	ErrInvalidNode = errors.New("grid: invalid node")
)

// Node is one synthetic spectrum: Flux[i] is sampled at Start + i*Step.
type Node struct {
	Path   string         `json:"path"`
	Params stellar.Params `json:"params"`
	Start  float64        `json:"start"`
	Step   float64        `json:"step"`
	Flux   []float64      `json:"flux"`
}

// Validate checks the sampling and the grid point.
func (n *Node) Validate() error {
	switch {
	case n.Path == "":
		return fmt.Errorf("%w: empty path", ErrInvalidNode)
	case !n.Params.IsFinite():
		return fmt.Errorf("%w: parameters %v", ErrInvalidNode, n.Params)
	case !(n.Step > 0) || math.IsInf(n.Step, 0) || math.IsNaN(n.Start) || math.IsInf(n.Start, 0):
		return fmt.Errorf("%w: sampling start=%v step=%v", ErrInvalidNode, n.Start, n.Step)
	case len(n.Flux) < 2:
		return fmt.Errorf("%w: %d samples", ErrInvalidNode, len(n.Flux))
	}
	return nil
}

// Wavelength returns the sampling of the node.
func (n *Node) Wavelength() []float64 {
	w := make([]float64, len(n.Flux))
	for i := range w {
		w[i] = n.Start + float64(i)*n.Step
	}
	return w
}

// Axes lists the distinct grid values of each parameter in increasing
// order.
type Axes struct {
	Teff    []float64
	Logg    []float64
	FeH     []float64
	AlphaFe []float64
}

// Store manages the nodes table.
type Store struct {
	db *sql.DB
}

// NewStore creates the schema and returns a Store.
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("grid schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Put inserts or replaces a node.
func (s *Store) Put(n Node) error {
	if err := n.Validate(); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO nodes (path, teff, logg, feh, alphafe, start, step, n, flux)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.Path, n.Params.Teff, n.Params.Logg, n.Params.FeH, n.Params.AlphaFe,
		n.Start, n.Step, len(n.Flux), encodeFlux(n.Flux),
	)
	if err != nil {
		return fmt.Errorf("grid: put %s %v: %w", n.Path, n.Params, err)
	}
	return nil
}

// Get returns the node at grid point p of path.
func (s *Store) Get(path string, p stellar.Params) (Node, error) {
	row := s.db.QueryRow(
		`SELECT start, step, n, flux FROM nodes
		 WHERE path = ? AND teff = ? AND logg = ? AND feh = ? AND alphafe = ?`,
		path, p.Teff, p.Logg, p.FeH, p.AlphaFe,
	)
	n := Node{Path: path, Params: p}
	var count int
	var blob []byte
	if err := row.Scan(&n.Start, &n.Step, &count, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Node{}, fmt.Errorf("%w: %s %v", ErrNodeNotFound, path, p)
		}
		return Node{}, fmt.Errorf("grid: get %s %v: %w", path, p, err)
	}
	flux, err := decodeFlux(blob)
	if err != nil {
		return Node{}, err
	}
	if len(flux) != count {
		return Node{}, fmt.Errorf("%w: %d samples stored, %d expected", ErrInvalidNode, len(flux), count)
	}
	n.Flux = flux
	return n, nil
}

// Count returns the number of nodes of path.
func (s *Store) Count(path string) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM nodes WHERE path = ?`, path).Scan(&n); err != nil {
		return 0, fmt.Errorf("grid: count %s: %w", path, err)
	}
	return n, nil
}

// Paths returns the distinct data paths in the store.
func (s *Store) Paths() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT path FROM nodes ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("grid: paths: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Axes returns the grid values of path.
func (s *Store) Axes(path string) (Axes, error) {
	var ax Axes
	for _, c := range []struct {
		column string
		dst    *[]float64
	}{
		{"teff", &ax.Teff},
		{"logg", &ax.Logg},
		{"feh", &ax.FeH},
		{"alphafe", &ax.AlphaFe},
	} {
		// column names come from the fixed list above
		rows, err := s.db.Query(`SELECT DISTINCT ` + c.column + ` FROM nodes WHERE path = ?`, path)
		if err != nil {
			return Axes{}, fmt.Errorf("grid: axes %s: %w", path, err)
		}
		var vals []float64
		for rows.Next() {
			var v float64
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return Axes{}, err
			}
			vals = append(vals, v)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return Axes{}, err
		}
		if len(vals) == 0 {
			return Axes{}, fmt.Errorf("%w: no nodes for %s", ErrNodeNotFound, path)
		}
		sort.Float64s(vals)
		*c.dst = vals
	}
	return ax, nil
}

func encodeFlux(flux []float64) []byte {
	b := make([]byte, 8*len(flux))
	for i, v := range flux {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(v))
	}
	return b
}

func decodeFlux(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("%w: flux blob of %d bytes", ErrInvalidNode, len(b))
	}
	out := make([]float64, len(b)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return out, nil
}

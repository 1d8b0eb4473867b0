package interp

import (
	"errors"
	"math"
	"testing"
)

func resample(x, y, xq []float64) ([]float64, error) {
	tab, err := NewTable(x, y)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(xq))
	return out, tab.ResampleTo(out, xq)
}

func TestLinear2(t *testing.T) {
	if got := Linear2(0.25, 2, 4); got != 2.5 {
		t.Fatalf("Linear2 = %v, want 2.5", got)
	}
}

func TestTableNonUniform(t *testing.T) {
	x := []float64{4100, 4100.5, 4102, 4105}
	y := []float64{1, 0.5, 0.8, 1}
	got, err := resample(x, y, []float64{4100.25, 4101.25, 4102, 4104})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0.75, 0.65, 0.8, 0.8 + 0.2*2.0/3.0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTableClampsOutside(t *testing.T) {
	got, err := resample([]float64{1, 2}, []float64{10, 20}, []float64{0, 3})
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 10 || got[1] != 20 {
		t.Fatalf("got %v, want [10 20]", got)
	}
}

func TestTableExactAtKnots(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{3, -1, 4, 1}
	got, err := resample(x, y, x)
	if err != nil {
		t.Fatal(err)
	}
	for i := range y {
		if got[i] != y[i] {
			t.Fatalf("index %d: got %v, want %v", i, got[i], y[i])
		}
	}
}

func TestNewTableErrors(t *testing.T) {
	tests := []struct {
		name string
		x, y []float64
		want error
	}{
		{"short", []float64{1}, []float64{1}, ErrTooShort},
		{"mismatch", []float64{1, 2}, []float64{1}, ErrLengthMismatch},
		{"repeated", []float64{1, 1}, []float64{1, 2}, ErrNotIncreasing},
		{"decreasing", []float64{2, 1}, []float64{1, 2}, ErrNotIncreasing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTable(tt.x, tt.y); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUniform(t *testing.T) {
	grid, vals, err := Uniform([]float64{0, 10}, []float64{0, 100}, 2, 2.5, 3)
	if err != nil {
		t.Fatal(err)
	}
	if grid[2] != 7 || vals[0] != 20 || vals[2] != 70 {
		t.Fatalf("grid %v vals %v", grid, vals)
	}
	if _, _, err := Uniform([]float64{0, 1}, []float64{0, 1}, 0, 0, 2); !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("expected ErrInvalidStep, got %v", err)
	}
}

func TestResampleToLengthMismatch(t *testing.T) {
	tab, err := NewTable([]float64{0, 1}, []float64{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := tab.ResampleTo(make([]float64, 1), []float64{0, 1}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}

package vector

import (
	"math"
	"testing"
)

func TestDot(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"identical unit", []float32{1, 0}, []float32{1, 0}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dot(tt.a, tt.b); math.Abs(got-tt.want) > epsilon {
				t.Errorf("dot(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestL2Norm(t *testing.T) {
	if got := L2Norm([]float32{3, 4}); math.Abs(got-5) > epsilon {
		t.Errorf("L2Norm = %v, want 5", got)
	}
	if got := L2Norm(nil); got != 0 {
		t.Errorf("L2Norm(nil) = %v, want 0", got)
	}
}

func TestNormalized(t *testing.T) {
	in := []float32{3, 4}
	out := normalized(in)
	if in[0] != 3 || in[1] != 4 {
		t.Errorf("input mutated: %v", in)
	}
	if got := L2Norm(out); math.Abs(got-1) > epsilon {
		t.Errorf("norm of normalized vector = %v, want 1", got)
	}

	zero := normalized([]float32{0, 0, 0})
	if !isZero(zero) {
		t.Errorf("normalized zero vector changed: %v", zero)
	}
}

package utils

import (
	"errors"
	"math"
	"testing"
)

func TestCosineDistance(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{
			name:     "identical vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{1, 0, 0},
			expected: 0.0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{-1, 0, 0},
			expected: 2.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{0, 1, 0},
			expected: 1.0,
		},
		{
			name:     "scaled vectors",
			a:        []float32{1, 2, 3},
			b:        []float32{2, 4, 6},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := CosineDistance(tt.a, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(d-tt.expected) > 1e-6 {
				t.Errorf("CosineDistance(%v, %v) = %v, expected %v", tt.a, tt.b, d, tt.expected)
			}
		})
	}
}

func TestCosineDistanceErrors(t *testing.T) {
	t.Parallel()

	t.Run("dimension mismatch", func(t *testing.T) {
		if _, err := CosineDistance([]float32{1}, []float32{1, 2}); err == nil {
			t.Error("expected error for mismatched dimensions")
		}
	})

	t.Run("empty vectors", func(t *testing.T) {
		if _, err := CosineDistance(nil, nil); err == nil {
			t.Error("expected error for empty vectors")
		}
	})

	t.Run("zero magnitude", func(t *testing.T) {
		_, err := CosineDistance([]float32{0, 0}, []float32{1, 2})
		if !errors.Is(err, ErrZeroMagnitude) {
			t.Errorf("expected ErrZeroMagnitude, got %v", err)
		}
	})
}

func TestDotProduct(t *testing.T) {
	t.Parallel()

	if got := DotProduct([]float32{1, 2, 3}, []float32{4, 5, 6}); got != 32 {
		t.Errorf("DotProduct = %v, want 32", got)
	}
	if got := DotProduct([]float32{1}, []float32{1, 2}); got != 0 {
		t.Errorf("DotProduct of mismatched lengths = %v, want 0", got)
	}
}

func TestSigmoid(t *testing.T) {
	t.Parallel()

	if got := Sigmoid(0); got != 0.5 {
		t.Errorf("Sigmoid(0) = %v, want 0.5", got)
	}
	if Sigmoid(100) != 1 || Sigmoid(-100) != 0 {
		t.Error("Sigmoid should saturate at large magnitudes")
	}
}

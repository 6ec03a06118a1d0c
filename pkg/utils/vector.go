// Package utils provides common utility functions for the docsim project.
package utils

import (
	"errors"
	"fmt"
	"math"
)

// ErrZeroMagnitude is returned when a vector has no direction, so its cosine
// distance to any other vector is undefined.
var ErrZeroMagnitude = errors.New("zero-magnitude vector")

// CosineDistance returns 1 - cosine similarity of a and b, in [0, 2].
// Mismatched, empty or zero-magnitude input is an error.
func CosineDistance(a, b []float32) (float64, error) {
	sim, err := cosine(a, b)
	if err != nil {
		return 0, err
	}
	return 1 - sim, nil
}

func cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine: dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("cosine: empty vectors")
	}

	var dotProduct, normA, normB float64

	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, ErrZeroMagnitude
	}

	sim := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Rounding can push identical vectors a hair past 1.
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim, nil
}

// DotProduct calculates the dot product of two float32 vectors.
// Returns 0 if vectors have different lengths.
func DotProduct(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var result float64
	for i := range a {
		result += float64(a[i]) * float64(b[i])
	}
	return result
}

// Sigmoid is the logistic function, clamped so large inputs do not overflow exp.
func Sigmoid(x float64) float64 {
	if x > 30 {
		return 1
	}
	if x < -30 {
		return 0
	}
	return 1 / (1 + math.Exp(-x))
}

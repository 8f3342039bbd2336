package pipeline

import (
	"math"
	"testing"
)

func TestQuantileLinearInterpolation(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	if got := quantile(xs, 0.5); math.Abs(got-2.5) > 1e-12 {
		t.Fatalf("median = %v, want 2.5", got)
	}
	if got := quantile(xs, 0.75); math.Abs(got-3.25) > 1e-12 {
		t.Fatalf("q3 = %v, want 3.25", got)
	}
	if got := quantile(xs, 0); got != 1 {
		t.Fatalf("q0 = %v, want 1", got)
	}
	if got := quantile(xs, 1); got != 4 {
		t.Fatalf("q1 = %v, want 4", got)
	}
}

func TestQuantileUnsortedInput(t *testing.T) {
	xs := []float64{4, 1, 3, 2}
	if got := quantile(xs, 0.5); math.Abs(got-2.5) > 1e-12 {
		t.Fatalf("median = %v, want 2.5", got)
	}
	// input must not be reordered
	if xs[0] != 4 || xs[3] != 2 {
		t.Fatalf("quantile mutated its input: %v", xs)
	}
}

func TestIQR(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	if got := iqr(xs); math.Abs(got-1.5) > 1e-12 {
		t.Fatalf("iqr = %v, want 1.5", got)
	}
}

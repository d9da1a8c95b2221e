package alignment

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestInterpolatorsRejectBadPoints(t *testing.T) {
	tests := []struct {
		name   string
		xs, ys []float64
	}{
		{"length mismatch", []float64{0, 1}, []float64{0}},
		{"single point", []float64{0}, []float64{0}},
		{"repeated x", []float64{0, 1, 1}, []float64{0, 1, 2}},
		{"decreasing x", []float64{2, 1}, []float64{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMonotoneSpline(tt.xs, tt.ys); !errors.Is(err, ErrControlPoints) {
				t.Fatalf("spline err = %v", err)
			}
			if _, err := NewLinear(tt.xs, tt.ys); !errors.Is(err, ErrControlPoints) {
				t.Fatalf("linear err = %v", err)
			}
		})
	}
}

func TestInterpolatorsPassThroughControlPoints(t *testing.T) {
	xs := []float64{0, 2, 3, 7, 10}
	ys := []float64{0, 100, 120, 500, 900}
	spline, err := NewMonotoneSpline(xs, ys)
	if err != nil {
		t.Fatal(err)
	}
	linear, err := NewLinear(xs, ys)
	if err != nil {
		t.Fatal(err)
	}
	for i := range xs {
		for name, curve := range map[string]Interpolator{"spline": spline, "linear": linear} {
			if got := curve.At(xs[i]); math.Abs(got-ys[i]) > 1e-9 {
				t.Fatalf("%s.At(%v) = %v, want %v", name, xs[i], got, ys[i])
			}
		}
	}
	if got := linear.At(1); got != 50 {
		t.Fatalf("linear midpoint = %v, want 50", got)
	}
	if spline.At(-5) != 0 || spline.At(50) != 900 {
		t.Fatal("spline should clamp outside the control range")
	}
}

// Between any two boundaries the curve stays within their times and never
// decreases.
func TestMonotoneSplineStaysWithinBoundaries(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := 2 + rng.Intn(10)
		xs := make([]float64, n)
		ys := make([]float64, n)
		for i := 1; i < n; i++ {
			xs[i] = xs[i-1] + 0.5 + rng.Float64()*5
			// Include flat runs and steep jumps.
			switch rng.Intn(3) {
			case 0:
				ys[i] = ys[i-1]
			case 1:
				ys[i] = ys[i-1] + rng.Float64()
			default:
				ys[i] = ys[i-1] + rng.Float64()*1000
			}
		}
		spline, err := NewMonotoneSpline(xs, ys)
		if err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}
		prev := math.Inf(-1)
		for k := 0; k < n-1; k++ {
			for step := 0; step <= 20; step++ {
				x := xs[k] + (xs[k+1]-xs[k])*float64(step)/20
				y := spline.At(x)
				if y < ys[k]-1e-7 || y > ys[k+1]+1e-7 {
					t.Fatalf("trial %d: At(%v)=%v outside [%v,%v]", trial, x, y, ys[k], ys[k+1])
				}
				if y < prev-1e-7 {
					t.Fatalf("trial %d: curve decreased at %v: %v < %v", trial, x, y, prev)
				}
				prev = y
			}
		}
	}
}

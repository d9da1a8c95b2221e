package alignment

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Interpolator evaluates a curve fitted through control points.
type Interpolator interface {
	At(x float64) float64
}

// ErrControlPoints reports unusable control points.
var ErrControlPoints = errors.New("invalid control points")

func checkPoints(xs, ys []float64) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("%w: %d xs, %d ys", ErrControlPoints, len(xs), len(ys))
	}
	if len(xs) < 2 {
		return fmt.Errorf("%w: need at least 2 points, got %d", ErrControlPoints, len(xs))
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return fmt.Errorf("%w: x values must be strictly increasing at %d", ErrControlPoints, i)
		}
	}
	return nil
}

// interval returns k such that xs[k] <= x <= xs[k+1] for x inside the range.
func interval(xs []float64, x float64) int {
	k := sort.SearchFloat64s(xs, x) - 1
	if k < 0 {
		k = 0
	}
	if k > len(xs)-2 {
		k = len(xs) - 2
	}
	return k
}

// Linear is a piecewise-linear interpolator. Queries outside the control
// range are clamped to the end points.
type Linear struct {
	xs, ys []float64
}

// NewLinear fits a piecewise-linear curve through (xs[i], ys[i]).
func NewLinear(xs, ys []float64) (*Linear, error) {
	if err := checkPoints(xs, ys); err != nil {
		return nil, err
	}
	return &Linear{xs: append([]float64(nil), xs...), ys: append([]float64(nil), ys...)}, nil
}

// At evaluates the curve at x.
func (l *Linear) At(x float64) float64 {
	n := len(l.xs)
	if x <= l.xs[0] {
		return l.ys[0]
	}
	if x >= l.xs[n-1] {
		return l.ys[n-1]
	}
	k := interval(l.xs, x)
	t := (x - l.xs[k]) / (l.xs[k+1] - l.xs[k])
	return l.ys[k] + t*(l.ys[k+1]-l.ys[k])
}

// Spline is a monotone cubic Hermite interpolator. Tangents are limited with
// the Fritsch-Carlson conditions so the curve is monotone wherever the data
// is, and never overshoots neighbouring control points.
type Spline struct {
	xs, ys, ms []float64
}

// NewMonotoneSpline fits a monotone cubic spline through (xs[i], ys[i]).
func NewMonotoneSpline(xs, ys []float64) (*Spline, error) {
	if err := checkPoints(xs, ys); err != nil {
		return nil, err
	}
	n := len(xs)
	deltas := make([]float64, n-1)
	for k := 0; k < n-1; k++ {
		deltas[k] = (ys[k+1] - ys[k]) / (xs[k+1] - xs[k])
	}

	ms := make([]float64, n)
	ms[0] = deltas[0]
	ms[n-1] = deltas[n-2]
	for k := 1; k < n-1; k++ {
		if deltas[k-1]*deltas[k] <= 0 {
			ms[k] = 0
			continue
		}
		ms[k] = (deltas[k-1] + deltas[k]) / 2
	}

	for k := 0; k < n-1; k++ {
		if deltas[k] == 0 {
			ms[k] = 0
			ms[k+1] = 0
			continue
		}
		a := ms[k] / deltas[k]
		b := ms[k+1] / deltas[k]
		if a < 0 {
			ms[k] = 0
			a = 0
		}
		if b < 0 {
			ms[k+1] = 0
			b = 0
		}
		if s := a*a + b*b; s > 9 {
			tau := 3 / math.Sqrt(s)
			ms[k] = tau * a * deltas[k]
			ms[k+1] = tau * b * deltas[k]
		}
	}

	return &Spline{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
		ms: ms,
	}, nil
}

// At evaluates the spline at x. Queries outside the control range are clamped
// to the end points.
func (s *Spline) At(x float64) float64 {
	n := len(s.xs)
	if x <= s.xs[0] {
		return s.ys[0]
	}
	if x >= s.xs[n-1] {
		return s.ys[n-1]
	}
	k := interval(s.xs, x)
	h := s.xs[k+1] - s.xs[k]
	t := (x - s.xs[k]) / h
	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	return h00*s.ys[k] + h10*h*s.ms[k] + h01*s.ys[k+1] + h11*h*s.ms[k+1]
}

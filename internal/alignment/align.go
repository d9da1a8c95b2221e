package alignment

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects the interpolation used between word boundaries.
type Mode int

const (
	// ModeSpline uses the monotone cubic spline.
	ModeSpline Mode = iota
	// ModeLinear uses piecewise-linear interpolation.
	ModeLinear
)

func (m Mode) String() string {
	if m == ModeLinear {
		return "linear"
	}
	return "spline"
}

// ParseMode maps a configuration value to a Mode.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "spline":
		return ModeSpline, nil
	case "linear":
		return ModeLinear, nil
	default:
		return ModeSpline, fmt.Errorf("unknown interpolation %q", value)
	}
}

// CharTiming is the timing of one grapheme cluster relative to the start of
// its part.
type CharTiming struct {
	Char       string  `json:"char"`
	Index      int     `json:"index"`
	WordIndex  int     `json:"word_index"`
	StartMs    float64 `json:"start_ms"`
	DurationMs float64 `json:"duration_ms"`
}

// EndMs returns the end time of the character.
func (c CharTiming) EndMs() float64 {
	return c.StartMs + c.DurationMs
}

// AlignCharacters assigns a start time and duration to every non-whitespace
// grapheme cluster of text so that the characters span the whole duration.
// Zero duration or text without visible characters yields nil.
func AlignCharacters(duration time.Duration, text string, mode Mode) []CharTiming {
	if duration <= 0 {
		return nil
	}
	graphemes := Segment(text)
	visible := make([]Grapheme, 0, len(graphemes))
	for _, g := range graphemes {
		if g.Word >= 0 {
			visible = append(visible, g)
		}
	}
	if len(visible) == 0 {
		return nil
	}

	totalMs := float64(duration) / float64(time.Millisecond)
	xs, ys := wordBoundaries(visible, totalMs)
	curve := newCurve(xs, ys, mode)

	// positions[j] is the time at which visible character j starts.
	positions := make([]float64, len(visible)+1)
	lo, hi := ys[0], ys[len(ys)-1]
	for j := range positions {
		t := curve.At(float64(j))
		if t < lo {
			t = lo
		}
		if t > hi {
			t = hi
		}
		if j > 0 && t < positions[j-1] {
			t = positions[j-1]
		}
		positions[j] = t
	}
	positions[0] = lo
	positions[len(visible)] = hi

	out := make([]CharTiming, len(visible))
	for j, g := range visible {
		out[j] = CharTiming{
			Char:       g.Text,
			Index:      g.Index,
			WordIndex:  g.Word,
			StartMs:    positions[j],
			DurationMs: positions[j+1] - positions[j],
		}
	}
	return out
}

// wordBoundaries returns cumulative (character position, time) control
// points, one per word end, starting at (0, 0). Each word receives
// totalMs * wordChars / max(1, totalChars).
func wordBoundaries(visible []Grapheme, totalMs float64) ([]float64, []float64) {
	var counts []int
	current := -1
	for _, g := range visible {
		if g.Word != current {
			counts = append(counts, 0)
			current = g.Word
		}
		counts[len(counts)-1]++
	}
	totalChars := len(visible)
	denom := float64(max(1, totalChars))

	xs := []float64{0}
	ys := []float64{0}
	pos := 0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		pos += c
		xs = append(xs, float64(pos))
		ys = append(ys, totalMs*float64(pos)/denom)
	}
	ys[len(ys)-1] = totalMs
	return xs, ys
}

func newCurve(xs, ys []float64, mode Mode) Interpolator {
	if mode == ModeSpline && len(xs) > 2 {
		if spline, err := NewMonotoneSpline(xs, ys); err == nil {
			return spline
		}
	}
	linear, err := NewLinear(xs, ys)
	if err != nil {
		return constant(ys[len(ys)-1])
	}
	return linear
}

type constant float64

func (c constant) At(float64) float64 { return float64(c) }

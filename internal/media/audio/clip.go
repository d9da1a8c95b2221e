package audio

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ClipID is an opaque handle that ties side metadata (such as backend
// character timing) to a clip without relying on value identity.
type ClipID string

// NewClipID returns a fresh random clip handle.
func NewClipID() ClipID {
	return ClipID(uuid.NewString())
}

// Clip is a mono 16-bit PCM audio clip.
type Clip struct {
	ID         ClipID
	SampleRate int
	Samples    []int16
}

// FromSamples wraps samples in a clip with a fresh ID.
func FromSamples(rate int, samples []int16) Clip {
	return Clip{ID: NewClipID(), SampleRate: rate, Samples: samples}
}

// Silence returns a silent clip of duration d at rate. Non-positive
// durations produce an empty clip.
func Silence(d time.Duration, rate int) Clip {
	if d <= 0 || rate <= 0 {
		return Clip{ID: NewClipID(), SampleRate: rate}
	}
	count := int(d.Seconds() * float64(rate))
	return Clip{ID: NewClipID(), SampleRate: rate, Samples: make([]int16, count)}
}

// Duration returns the playback length implied by the sample count.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 || len(c.Samples) == 0 {
		return 0
	}
	return time.Duration(int64(len(c.Samples)) * int64(time.Second) / int64(c.SampleRate))
}

// Seconds returns the clip duration in fractional seconds.
func (c Clip) Seconds() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Empty reports whether the clip carries no audio.
func (c Clip) Empty() bool {
	return len(c.Samples) == 0
}

// Concat joins clips end to end. Empty clips are skipped; the remaining clips
// must share one sample rate.
func Concat(clips ...Clip) (Clip, error) {
	rate := 0
	total := 0
	for _, c := range clips {
		if c.Empty() {
			continue
		}
		if rate == 0 {
			rate = c.SampleRate
		} else if c.SampleRate != rate {
			return Clip{}, fmt.Errorf("concat: sample rate mismatch %d vs %d", c.SampleRate, rate)
		}
		total += len(c.Samples)
	}
	out := make([]int16, 0, total)
	for _, c := range clips {
		out = append(out, c.Samples...)
	}
	return Clip{ID: NewClipID(), SampleRate: rate, Samples: out}, nil
}

package audio

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestSilenceDuration(t *testing.T) {
	c := Silence(1500*time.Millisecond, 1000)
	if len(c.Samples) != 1500 {
		t.Fatalf("samples = %d, want 1500", len(c.Samples))
	}
	if c.Duration() != 1500*time.Millisecond {
		t.Fatalf("Duration() = %v, want 1.5s", c.Duration())
	}
	if c.ID == "" {
		t.Fatal("expected clip id")
	}
}

func TestZeroClipIsEmpty(t *testing.T) {
	var c Clip
	if !c.Empty() || c.Duration() != 0 || c.Seconds() != 0 {
		t.Fatalf("zero clip should be empty with zero duration: %+v", c)
	}
	if s := Silence(-time.Second, 8000); !s.Empty() {
		t.Fatal("negative silence should be empty")
	}
}

func TestConcat(t *testing.T) {
	a := FromSamples(100, []int16{1, 2})
	b := FromSamples(100, []int16{3})
	joined, err := Concat(a, Clip{}, b)
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if got := joined.Samples; len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("unexpected samples %v", got)
	}
	if joined.SampleRate != 100 {
		t.Fatalf("rate = %d", joined.SampleRate)
	}
	if _, err := Concat(a, FromSamples(200, []int16{1})); err == nil {
		t.Fatal("expected rate mismatch error")
	}
}

func TestWAVRoundTripPreservesSamples(t *testing.T) {
	in := FromSamples(22050, []int16{0, 100, -100, 32767, -32768})
	var buf bytes.Buffer
	if err := EncodeWAV(&buf, in); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if buf.Len() != wavHeaderSize+len(in.Samples)*2 {
		t.Fatalf("unexpected wav size %d", buf.Len())
	}
	out, err := DecodeWAV(&buf)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if out.SampleRate != 22050 || len(out.Samples) != len(in.Samples) {
		t.Fatalf("decoded %d samples at %d", len(out.Samples), out.SampleRate)
	}
	for i := range in.Samples {
		if in.Samples[i] != out.Samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, out.Samples[i], in.Samples[i])
		}
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	_, err := DecodeWAV(bytes.NewReader([]byte("RIFF\x00\x00\x00\x00AVI LIST")))
	if !errors.Is(err, ErrUnsupportedWAV) {
		t.Fatalf("expected ErrUnsupportedWAV, got %v", err)
	}
}

func TestDownmixAveragesChannels(t *testing.T) {
	got := downmix([]int16{10, 20, -4, 4}, 2)
	if len(got) != 2 || got[0] != 15 || got[1] != 0 {
		t.Fatalf("downmix = %v", got)
	}
}

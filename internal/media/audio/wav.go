package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	wavHeaderSize  = 44
	pcmFormat      = 1
	bitsPerSample  = 16
	bytesPerSample = bitsPerSample / 8
)

// ErrUnsupportedWAV reports a WAV stream this package cannot decode.
var ErrUnsupportedWAV = errors.New("unsupported wav format")

// EncodeWAV writes c as a mono 16-bit PCM RIFF/WAVE stream.
func EncodeWAV(w io.Writer, c Clip) error {
	rate := c.SampleRate
	if rate <= 0 {
		return fmt.Errorf("encode wav: invalid sample rate %d", rate)
	}
	dataSize := uint32(len(c.Samples) * bytesPerSample)
	bw := bufio.NewWriter(w)
	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(wavHeaderSize - 8 + int(dataSize)),
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16),
		uint16(pcmFormat),
		uint16(1),
		uint32(rate),
		uint32(rate * bytesPerSample),
		uint16(bytesPerSample),
		uint16(bitsPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		dataSize,
	}
	for _, field := range header {
		if err := binary.Write(bw, binary.LittleEndian, field); err != nil {
			return fmt.Errorf("encode wav header: %w", err)
		}
	}
	if err := binary.Write(bw, binary.LittleEndian, c.Samples); err != nil {
		return fmt.Errorf("encode wav data: %w", err)
	}
	return bw.Flush()
}

// WriteWAVFile encodes c into path.
func WriteWAVFile(path string, c Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWAV(f, c); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// DecodeWAV reads a 16-bit PCM WAV stream. Multi-channel input is downmixed
// to mono by averaging.
func DecodeWAV(r io.Reader) (Clip, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return Clip{}, fmt.Errorf("decode wav: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return Clip{}, fmt.Errorf("decode wav: %w: missing RIFF/WAVE header", ErrUnsupportedWAV)
	}

	var (
		channels uint16
		rate     uint32
		bits     uint16
		haveFmt  bool
	)
	for {
		var chunkID [4]byte
		var size uint32
		if _, err := io.ReadFull(r, chunkID[:]); err != nil {
			return Clip{}, fmt.Errorf("decode wav: %w: no data chunk", ErrUnsupportedWAV)
		}
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return Clip{}, fmt.Errorf("decode wav: %w", err)
		}
		switch string(chunkID[:]) {
		case "fmt ":
			buf := make([]byte, size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return Clip{}, fmt.Errorf("decode wav fmt: %w", err)
			}
			if size < 16 {
				return Clip{}, fmt.Errorf("decode wav: %w: short fmt chunk", ErrUnsupportedWAV)
			}
			format := binary.LittleEndian.Uint16(buf[0:2])
			channels = binary.LittleEndian.Uint16(buf[2:4])
			rate = binary.LittleEndian.Uint32(buf[4:8])
			bits = binary.LittleEndian.Uint16(buf[14:16])
			if format != pcmFormat || bits != bitsPerSample || channels == 0 {
				return Clip{}, fmt.Errorf("decode wav: %w: format=%d bits=%d channels=%d", ErrUnsupportedWAV, format, bits, channels)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return Clip{}, fmt.Errorf("decode wav: %w: data before fmt", ErrUnsupportedWAV)
			}
			raw := make([]int16, size/bytesPerSample)
			if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
				return Clip{}, fmt.Errorf("decode wav data: %w", err)
			}
			return FromSamples(int(rate), downmix(raw, int(channels))), nil
		default:
			skip := int64(size) + int64(size%2)
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return Clip{}, fmt.Errorf("decode wav: skip chunk: %w", err)
			}
		}
	}
}

// ReadWAVFile decodes the WAV file at path.
func ReadWAVFile(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, err
	}
	defer f.Close()
	return DecodeWAV(bufio.NewReader(f))
}

func downmix(raw []int16, channels int) []int16 {
	if channels <= 1 {
		return raw
	}
	frames := len(raw) / channels
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += int(raw[i*channels+ch])
		}
		out[i] = int16(sum / channels)
	}
	return out
}

package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"bookvoice/internal/media/audio"
)

func writeText(path string, req Request) error {
	return writeBuffered(path, func(w *bufio.Writer) error {
		for _, block := range req.WrittenBlocks {
			fmt.Fprintf(w, "[%d] %s\n", block.SentenceNumber, block.Source)
			if block.Translation != "" && block.Translation != block.Source {
				fmt.Fprintln(w, block.Translation)
			}
			if block.Transliteration != "" {
				fmt.Fprintln(w, block.Transliteration)
			}
			fmt.Fprintln(w)
		}
		return nil
	})
}

func captionLines(c CaptionBlock) []string {
	lines := []string{c.Source}
	if c.Translation != "" && c.Translation != c.Source {
		lines = append(lines, c.Translation)
	}
	if c.Transliteration != "" {
		lines = append(lines, c.Transliteration)
	}
	return lines
}

func writeSRT(path string, req Request) error {
	return writeBuffered(path, func(w *bufio.Writer) error {
		cue := 0
		for _, c := range req.CaptionBlocks {
			if c.Duration <= 0 {
				continue
			}
			cue++
			fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n", cue,
				formatTimestamp(c.Start, ','), formatTimestamp(c.End(), ','),
				strings.Join(captionLines(c), "\n"))
		}
		return nil
	})
}

func writeVTT(path string, req Request) error {
	return writeBuffered(path, func(w *bufio.Writer) error {
		fmt.Fprint(w, "WEBVTT\n\n")
		for _, c := range req.CaptionBlocks {
			if c.Duration <= 0 {
				continue
			}
			fmt.Fprintf(w, "s%d\n%s --> %s\n%s\n\n", c.SentenceNumber,
				formatTimestamp(c.Start, '.'), formatTimestamp(c.End(), '.'),
				strings.Join(captionLines(c), "\n"))
		}
		return nil
	})
}

func formatTimestamp(d time.Duration, sep byte) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	h := ms / 3_600_000
	m := (ms / 60_000) % 60
	s := (ms / 1000) % 60
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, sep, ms%1000)
}

type highlightDoc struct {
	ChunkID        string                       `json:"chunk_id"`
	StartSentence  int                          `json:"start_sentence"`
	EndSentence    int                          `json:"end_sentence"`
	TargetLanguage string                       `json:"target_language,omitempty"`
	Voices         map[string]map[string]string `json:"voices,omitempty"`
	Sentences      []highlightSentence          `json:"sentences"`
}

type highlightSentence struct {
	Sentence        int                `json:"sentence"`
	StartMs         int64              `json:"start_ms"`
	DurationMs      int64              `json:"duration_ms"`
	Granularity     string             `json:"granularity"`
	Original        string             `json:"original"`
	Translation     string             `json:"translation,omitempty"`
	Transliteration string             `json:"transliteration,omitempty"`
	Segments        []highlightSegment `json:"segments"`
}

type highlightSegment struct {
	DurationMs           float64 `json:"duration_ms"`
	OriginalIndex        int     `json:"original_index"`
	TranslationIndex     int     `json:"translation_index"`
	TransliterationIndex int     `json:"transliteration_index"`
	Kind                 string  `json:"kind,omitempty"`
	CharStart            *int    `json:"char_start,omitempty"`
	CharEnd              *int    `json:"char_end,omitempty"`
}

func writeHighlights(path string, req Request) error {
	doc := highlightDoc{
		ChunkID:        req.ChunkID,
		StartSentence:  req.StartSentence,
		EndSentence:    req.EndSentence,
		TargetLanguage: req.TargetLanguage,
		Voices:         req.Voices,
		Sentences:      make([]highlightSentence, 0, len(req.CaptionBlocks)),
	}
	for _, c := range req.CaptionBlocks {
		sentence := highlightSentence{
			Sentence:        c.SentenceNumber,
			StartMs:         c.Start.Milliseconds(),
			DurationMs:      c.Duration.Milliseconds(),
			Granularity:     string(c.Granularity),
			Original:        c.Source,
			Translation:     c.Translation,
			Transliteration: c.Transliteration,
			Segments:        make([]highlightSegment, 0, len(c.Segments)),
		}
		for _, seg := range c.Segments {
			out := highlightSegment{
				DurationMs:           float64(seg.Duration) / float64(time.Millisecond),
				OriginalIndex:        seg.OriginalIndex,
				TranslationIndex:     seg.TranslationIndex,
				TransliterationIndex: seg.TransliterationIndex,
			}
			if seg.Step != nil {
				out.Kind = string(seg.Step.Kind)
				out.CharStart = seg.Step.CharStart
				out.CharEnd = seg.Step.CharEnd
			}
			sentence.Segments = append(sentence.Segments, out)
		}
		doc.Sentences = append(doc.Sentences, sentence)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode highlights: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func writeClip(path string, clip audio.Clip, fallbackRate int) error {
	if clip.SampleRate <= 0 {
		clip.SampleRate = fallbackRate
	}
	return audio.WriteWAVFile(path, clip)
}

func writeBuffered(path string, fill func(*bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := fill(w); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Package source reads the sentence stream a run narrates.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"bookvoice/internal/textutil"
)

// ErrEmptyRange reports a range that selects no sentences.
var ErrEmptyRange = errors.New("sentence range selects nothing")

const maxLineBytes = 1 << 20

// Range is a 1-based inclusive sentence selection. Zero bounds are open.
type Range struct {
	Start int
	End   int
}

// Selection is the result of ReadSentences.
type Selection struct {
	Sentences []string
	// First is the document number of Sentences[0].
	First int
	// Total is the number of sentences in the whole document.
	Total int
}

// ReadSentences reads one sentence per non-empty line of path and applies r.
func ReadSentences(path string, r Range) (Selection, error) {
	f, err := os.Open(path)
	if err != nil {
		return Selection{}, fmt.Errorf("open sentences: %w", err)
	}
	defer f.Close()
	return Read(f, r)
}

// Read is ReadSentences over an arbitrary reader.
func Read(reader io.Reader, r Range) (Selection, error) {
	if r.Start < 0 || r.End < 0 {
		return Selection{}, fmt.Errorf("negative sentence bound %d-%d", r.Start, r.End)
	}
	if r.End > 0 && r.Start > r.End {
		return Selection{}, fmt.Errorf("%w: start %d is after end %d", ErrEmptyRange, r.Start, r.End)
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var all []string
	for scanner.Scan() {
		line := strings.TrimPrefix(scanner.Text(), "\ufeff")
		line = textutil.CollapseWhitespace(line)
		if line == "" {
			continue
		}
		all = append(all, line)
	}
	if err := scanner.Err(); err != nil {
		return Selection{}, fmt.Errorf("read sentences: %w", err)
	}

	start := max(r.Start, 1)
	end := len(all)
	if r.End > 0 {
		end = min(r.End, len(all))
	}
	if start > end {
		return Selection{}, fmt.Errorf("%w: document has %d sentences, requested %d-%d", ErrEmptyRange, len(all), start, r.End)
	}
	return Selection{Sentences: all[start-1 : end], First: start, Total: len(all)}, nil
}

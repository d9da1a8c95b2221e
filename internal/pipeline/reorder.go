package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateIndex reports an index that is already buffered.
	ErrDuplicateIndex = errors.New("duplicate index")
	// ErrStaleIndex reports an index that was already emitted.
	ErrStaleIndex = errors.New("stale index")
)

// Reorder turns out-of-order arrivals back into index order. Pending values
// are unbounded; the queues upstream bound how far workers can run ahead.
type Reorder[T any] struct {
	next    int
	pending map[int]T
}

// NewReorder returns a buffer expecting start as its first index.
func NewReorder[T any](start int) *Reorder[T] {
	return &Reorder[T]{next: start, pending: make(map[int]T)}
}

// Insert stores v at index and returns every value that is now contiguous
// from the next expected index, in order.
func (r *Reorder[T]) Insert(index int, v T) ([]T, error) {
	if index < r.next {
		return nil, fmt.Errorf("reorder insert %d (next %d): %w", index, r.next, ErrStaleIndex)
	}
	if _, ok := r.pending[index]; ok {
		return nil, fmt.Errorf("reorder insert %d: %w", index, ErrDuplicateIndex)
	}
	r.pending[index] = v
	var ready []T
	for {
		value, ok := r.pending[r.next]
		if !ok {
			return ready, nil
		}
		delete(r.pending, r.next)
		ready = append(ready, value)
		r.next++
	}
}

// Pending returns the number of buffered values waiting on a gap.
func (r *Reorder[T]) Pending() int { return len(r.pending) }

// Next returns the index the buffer is waiting for.
func (r *Reorder[T]) Next() int { return r.next }

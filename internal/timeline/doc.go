// Package timeline flattens sentence audio metadata into time-ordered
// highlight events for caption rendering, and coalesces adjacent events that
// render identically.
//
// Highlight indices count revealed words: an OriginalIndex of 3 means the
// first three words of the original text are emphasized.
package timeline

// Package export accumulates sequenced sentence results into batches and
// writes each batch's artifacts atomically.
//
// Every artifact of a batch is first written into staging_dir/<chunk>. Only
// when all of them exist is the batch committed into the output directory,
// under an exclusive flock on that directory. A failure at any point removes
// the staged files and undoes any partial commit, so the output directory
// never holds a half-written batch.
//
// Artifact names follow "{start}-{end}_{base}.{ext}" so downstream stitching
// can locate files by sentence range.
//
// Finalizer runs exports on a single background goroutine behind a one-slot
// queue: the sequencer only waits when an export is running and another one
// is already queued.
package export

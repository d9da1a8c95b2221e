// Package staging manages the scratch directories batch exports write into
// before they commit: per-chunk directories under staging_dir and the
// transient ".incoming-<chunk>" directories inside the output directory.
//
// Interrupted runs can leave either behind. CleanStale and CleanIncoming
// remove them on the next start.
package staging

// Package notifications pushes run milestones to ntfy.
//
// NewService returns an ntfy-backed Service when a topic is configured and a
// no-op otherwise, so callers never branch on configuration. Observer adapts
// a Service to the progress event stream; wrap it with progress.Async so a
// slow ntfy server never stalls the pipeline.
package notifications

// Package logging assembles structured slog loggers and formatting helpers used
// across bookvoice stages.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and defines the standard field keys (component, run_id, sentence,
// chunk_id, event_type) that pipeline stages attach. A run log file in JSON
// is teed alongside the console stream when a log directory is configured.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging

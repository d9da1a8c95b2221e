// Package runner wires configuration, backends, the export catalog and the
// pipeline orchestrator into a single narration run.
//
// Run owns the process-level concerns of a run: the interrupt handling
// context, stale staging cleanup, the run log file, progress observers and
// the catalog rows describing the run and its committed batches.
package runner

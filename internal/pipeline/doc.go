// Package pipeline runs the concurrent sentence pipeline.
//
// Stages and the goroutines that drive them:
//   - Producer (1): translates sentences in order and pushes tasks
//   - Workers (W): synthesize media for tasks in any order
//   - Orchestrator.Run (1): reorders results back into sequence, attaches
//     highlight metadata and fills export batches
//   - export.Finalizer (1): commits batches off the sequencing goroutine
//
// Stages are connected only by Bounded queues and share one cancellation
// context. A nil task is the clean-shutdown sentinel for exactly one
// worker; the pool pushes one nil result once every worker has exited so
// the sequencer sees end of stream.
//
// Failures are contained where they happen: a synthesis error degrades that
// sentence to a silent clip, a translation error substitutes the failure
// marker, and an export error becomes a tracker error event. Cancellation
// is not an error; the sequencer stops taking results, flushes a non-empty
// batch exactly once and joins every stage within the shutdown timeout.
package pipeline

// Package progress tracks pipeline progress and fans events out to
// observers.
//
// A Tracker is created per run and passed to every stage that reports to it;
// there is no package-level tracker. Each mutation updates counters under a
// single mutex, builds an immutable Event carrying a fresh Snapshot, and
// notifies observers synchronously outside the lock. Observer panics are
// recovered and logged so a broken observer cannot stall the pipeline; slow
// observers should be wrapped with Async.
package progress

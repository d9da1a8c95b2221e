// Package services defines shared error markers for the external
// collaborators a run depends on (translation, speech, rendering) and hosts
// their adapters in subpackages.
//
// Stage-local failures are wrapped with Wrap so the progress tracker can
// classify them (external tool, validation, timeout, transient) without
// parsing messages. Failures never cross stage boundaries as panics; they
// become degraded results or error events.
package services

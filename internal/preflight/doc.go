// Package preflight provides readiness checks for the filesystem paths and
// external tools a bookvoice run depends on.
//
// The run command calls RunAll before starting the pipeline and refuses to
// start when a required check fails; the preflight command prints the same
// results as a table. Checks for optional features are skipped when the
// feature is disabled.
package preflight

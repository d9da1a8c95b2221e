// Package main hosts the bookvoice CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration once per invocation
// and hands it to the internal packages: run drives a narration pipeline,
// preflight reports readiness, exports and runs read the catalog, staging
// inspects leftover work directories and config scaffolds a sample file.
//
// Keep this package lean: add behavior to the internal packages first and
// surface it here with a dedicated command or flag.
package main

// Package ffprobe inspects rendered media with ffprobe's JSON output.
//
// Inspect runs the probe; Result exposes the stream counts, container
// duration and audio sample rate the render step validates against.
package ffprobe

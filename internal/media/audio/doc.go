// Package audio holds in-memory PCM clips produced by speech backends and
// the WAV helpers used to read engine output and write batch audio.
//
// Clips are mono 16-bit PCM. A clip's duration is derived from its sample
// count, so the "realized" duration the alignment engine works from is always
// the duration of the audio that will actually be exported. The zero Clip is
// the degraded, zero-duration silent clip.
package audio

// Package tts wraps the speech engines that turn sentence text into audio.
//
// Backends:
//   - estimate: silent clips sized from a words-per-minute reading estimate,
//     used for dry runs and caption-only output
//   - command: runs an external engine (piper, espeak-ng, ...) that writes a
//     WAV file, with {text}, {voice}, {lang} and {output} placeholders
//
// SentenceSynthesizer composes one sentence clip from the original part, a
// pause and the translation part, and implements media.Synthesizer for the
// worker pool.
package tts

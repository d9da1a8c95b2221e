// Package alignment maps spoken text onto the realized duration of its
// synthesized audio.
//
// AlignCharacters splits text into grapheme clusters, groups them into
// whitespace-delimited words, and allocates the audio duration to words in
// proportion to their character counts. Cumulative word boundaries become
// control points for a monotone cubic Hermite spline (Fritsch-Carlson), which
// yields a smooth, never-decreasing time curve for every character in
// between. Linear interpolation over the same points is the fallback.
//
// BuildSentenceMetadata lays the parts of one sentence clip (original speech,
// pause, translation speech) end to end and attaches highlight steps to each
// part. The resulting SentenceAudioMetadata keeps two invariants: a part's
// step durations sum to the part's duration, and part durations sum to the
// total, which is the duration of the clip itself.
package alignment

// Package translate provides the translation collaborators the producer
// calls once per sentence.
//
// Backends are selected once from configuration:
//   - passthrough: returns the source sentence unchanged (narration-only runs)
//   - llm: OpenRouter-compatible chat completion returning JSON
//
// The LLM client retries HTTP 408/429/5xx responses, empty completions and
// network timeouts with exponential backoff (base 1s, max 10s) and honours
// Retry-After. Context cancellation aborts retries immediately.
//
// When a call still fails the producer substitutes FailureMarker for the
// translated text and keeps going; a failed translation never stops a run.
package translate

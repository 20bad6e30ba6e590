// Package segmenting extracts short clip candidates from a transcript.
// A sliding window accumulates transcript spans inside the configured
// duration bounds, ranks them by keyword and speech-density relevance,
// and greedily drops near-duplicates by time-range overlap or
// near-identical transcript text. The
// extraction is deterministic: the same transcript and options always
// yield the same spans.
package segmenting

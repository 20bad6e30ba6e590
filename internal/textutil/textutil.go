// Package textutil provides the text helpers the pipeline shares:
// term-frequency fingerprints for near-duplicate transcript detection
// and token sanitization for artifact file names.
package textutil

import (
	"math"
	"regexp"
	"strings"
)

// tokenPattern splits on runs of non-alphanumeric characters.
var tokenPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Tokenize lowercases text, splits on non-alphanumeric runs, and drops
// tokens shorter than 3 characters.
func Tokenize(text string) []string {
	fields := tokenPattern.Split(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) >= 3 {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

// Fingerprint is a normalized term-frequency vector over a piece of
// transcript text.
type Fingerprint struct {
	terms map[string]float64
	norm  float64
}

// NewFingerprint builds a fingerprint from text. Text with no usable
// tokens yields nil.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	terms := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		terms[token]++
	}
	var norm float64
	for _, count := range terms {
		norm += count * count
	}
	return &Fingerprint{terms: terms, norm: math.Sqrt(norm)}
}

// CosineSimilarity returns the cosine similarity of two fingerprints in
// [0, 1]. Either side being nil yields 0.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for term, count := range a.terms {
		if other, ok := b.terms[term]; ok {
			dot += count * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}

// SanitizeToken lowercases value into a filesystem-safe token. Anything
// outside [a-z0-9-_] becomes an underscore; empty input yields "clip".
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "clip"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "clip"
	}
	return out
}

// Package scoring turns compositor probe signals into a 0-100 quality
// score with a per-metric breakdown, and maps the total onto a
// disposition (auto-approve, auto-reject, manual-review). Scoring is a
// pure computation over deterministic signals; it never touches media
// or pipeline state.
package scoring

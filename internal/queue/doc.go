// Package queue persists pipeline entities in SQLite and enforces the
// clip lifecycle state machine. Every status change is applied as an
// atomic compare-and-set against the item's persisted status; callers
// that lose a race receive ErrStaleState instead of silently clobbering
// another writer.
package queue

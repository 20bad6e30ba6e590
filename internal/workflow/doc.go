// Package workflow drives queue items through the clip pipeline. A
// single manager goroutine polls the queue for the oldest actionable
// item, claims it with a compare-and-set status transition, runs the
// stage handler registered for that status, and advances the item with
// a second compare-and-set. All status writes happen here; stage
// handlers only mutate payload fields on the item they are given.
package workflow

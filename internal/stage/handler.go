// Package stage defines the contract between the workflow manager and
// the pipeline stages it drives.
package stage

import (
	"context"

	"shortpipe/internal/queue"
)

// Handler describes the contract the workflow manager needs from each stage.
// Prepare runs before the item is moved to its processing status; Execute
// performs the stage work and sets the item's payload fields. The manager
// owns all status writes.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
	HealthCheck(context.Context) Health
}

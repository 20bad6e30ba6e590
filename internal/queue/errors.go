package queue

import (
	"errors"
	"fmt"
)

// ErrStaleState indicates a compare-and-set transition found the item in
// a different status than the caller expected. The losing caller must
// re-read the item rather than retry blindly.
var ErrStaleState = errors.New("stale state")

// ErrIllegalTransition indicates the requested edge is not part of the
// state machine.
var ErrIllegalTransition = errors.New("illegal transition")

// ErrNotFound indicates the referenced item does not exist.
var ErrNotFound = errors.New("queue item not found")

// TransitionError carries the context of a refused transition.
type TransitionError struct {
	ItemID int64
	From   Status
	To     Status
	Err    error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition item %d %s -> %s: %v", e.ItemID, e.From, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// IsConflict reports whether an error represents a stale-state conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrStaleState)
}

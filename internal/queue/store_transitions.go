package queue

import (
	"context"
	"fmt"
	"time"
)

// Transition atomically moves an item from one status to another. The
// write is a compare-and-set: the UPDATE matches on both id and the
// expected status, so a concurrent writer that got there first causes
// zero rows affected and the caller receives ErrStaleState. mutate, when
// non-nil, adjusts the item's payload fields inside the same write.
func (s *Store) Transition(ctx context.Context, id int64, from, to Status, mutate func(*Item)) (*Item, error) {
	ctx = ensureContext(ctx)
	if !CanTransition(from, to) {
		return nil, &TransitionError{ItemID: id, From: from, To: to, Err: ErrIllegalTransition}
	}

	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &TransitionError{ItemID: id, From: from, To: to, Err: ErrNotFound}
	}
	if item.Status != from {
		return nil, &TransitionError{ItemID: id, From: from, To: to, Err: fmt.Errorf("%w: item is %s", ErrStaleState, item.Status)}
	}

	item.Status = to
	if mutate != nil {
		mutate(item)
		if item.Status != to {
			return nil, &TransitionError{ItemID: id, From: from, To: to, Err: fmt.Errorf("mutate changed status to %s", item.Status)}
		}
	}
	item.UpdatedAt = time.Now().UTC()

	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
         SET status = ?, title = ?, transcript_id = ?, candidate_id = ?, template_id = ?,
             artifact_path = ?, score = ?, breakdown_json = ?, disposition = ?,
             review_reason = ?, decided_by = ?, publish_ready_at = ?, scheduled_at = ?,
             platform_id = ?, stage_attempts = ?, publish_attempts = ?, error_message = ?,
             updated_at = ?
         WHERE id = ? AND status = ?`,
		to,
		nullableString(item.Title),
		item.TranscriptID,
		nullableString(item.CandidateID),
		nullableString(item.TemplateID),
		nullableString(item.ArtifactPath),
		item.Score,
		nullableString(item.BreakdownJSON),
		nullableString(item.Disposition),
		nullableString(item.ReviewReason),
		nullableString(item.DecidedBy),
		nullableTime(item.PublishReadyAt),
		nullableTime(item.ScheduledAt),
		nullableString(item.PlatformID),
		item.StageAttempts,
		item.PublishAttempts,
		nullableString(item.ErrorMessage),
		item.UpdatedAt.Format(time.RFC3339Nano),
		id,
		from,
	)
	if err != nil {
		return nil, &TransitionError{ItemID: id, From: from, To: to, Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, &TransitionError{ItemID: id, From: from, To: to, Err: ErrStaleState}
	}
	return item, nil
}

// Fail moves an item to failed from whatever non-terminal status it
// currently holds, recording the error message.
func (s *Store) Fail(ctx context.Context, id int64, message string) (*Item, error) {
	ctx = ensureContext(ctx)
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &TransitionError{ItemID: id, To: StatusFailed, Err: ErrNotFound}
	}
	if IsTerminal(item.Status) {
		return nil, &TransitionError{ItemID: id, From: item.Status, To: StatusFailed, Err: ErrIllegalTransition}
	}
	return s.Transition(ctx, id, item.Status, StatusFailed, func(it *Item) {
		it.ErrorMessage = message
	})
}

// ReleaseClaim rolls an item back from a processing status to the status
// it was claimed from after a transient stage failure, recording the
// attempt count and error message so the next poll retries it. This is a
// rollback of an in-flight claim, not a pipeline edge, so it skips the
// forward-only check but still compare-and-sets on the claimed status.
func (s *Store) ReleaseClaim(ctx context.Context, id int64, claimed, releaseTo Status, attempts int, message string) error {
	ctx = ensureContext(ctx)
	if !IsProcessingStatus(claimed) {
		return &TransitionError{ItemID: id, From: claimed, To: releaseTo, Err: ErrIllegalTransition}
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
         SET status = ?, stage_attempts = ?, error_message = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		releaseTo,
		attempts,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		claimed,
	)
	if err != nil {
		return &TransitionError{ItemID: id, From: claimed, To: releaseTo, Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return &TransitionError{ItemID: id, From: claimed, To: releaseTo, Err: ErrStaleState}
	}
	return nil
}

// BulkResult reports the outcome of one item within a bulk transition.
type BulkResult struct {
	ItemID int64
	Status Status
	Err    error
}

// BulkTransition applies the same transition to each item independently.
// A failure on one item never blocks the others; callers receive one
// result per requested id, in request order.
func (s *Store) BulkTransition(ctx context.Context, ids []int64, from, to Status, mutate func(*Item)) []BulkResult {
	ctx = ensureContext(ctx)
	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		item, err := s.Transition(ctx, id, from, to, mutate)
		result := BulkResult{ItemID: id, Err: err}
		if item != nil {
			result.Status = item.Status
		}
		results = append(results, result)
	}
	return results
}

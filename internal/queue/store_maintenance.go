package queue

import (
	"context"
	"fmt"
	"time"
)

// Stats returns the number of items per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM queue_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}

// Health aggregates the per-status counts into an operator summary.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}

	var summary HealthSummary
	for status, count := range stats {
		summary.Total += count
		switch {
		case status == StatusPendingReview:
			summary.PendingReview += count
		case status == StatusPublishReady:
			summary.PublishReady += count
		case status == StatusPublished:
			summary.Published += count
		case status == StatusRejected:
			summary.Rejected += count
		case status == StatusFailed:
			summary.Failed += count
		case IsProcessingStatus(status):
			summary.Processing += count
		default:
			summary.Waiting += count
		}
	}
	return summary, nil
}

// RetryFailed returns failed items to the head of the pipeline so they
// run again from discovery. The per-item forward-only rule applies to
// pipeline writers; this is an explicit operator override.
func (s *Store) RetryFailed(ctx context.Context) (int, error) {
	res, err := s.execWithRetry(
		ensureContext(ctx),
		`UPDATE queue_items
         SET status = ?, error_message = NULL, stage_attempts = 0, publish_attempts = 0, updated_at = ?
         WHERE status = ?`,
		StatusDiscovered,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("retry failed items: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}

// ResetStuckProcessing fails items that have sat in a processing status
// longer than the threshold. Run at daemon startup to recover from a
// crash that left claims behind.
func (s *Store) ResetStuckProcessing(ctx context.Context, olderThan time.Duration) (int, error) {
	ctx = ensureContext(ctx)
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)

	total := 0
	for status := range processingStatuses {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE queue_items
             SET status = ?, error_message = ?, updated_at = ?
             WHERE status = ? AND updated_at < ?`,
			StatusFailed,
			fmt.Sprintf("stage interrupted while %s", status),
			time.Now().UTC().Format(time.RFC3339Nano),
			status,
			cutoff,
		)
		if err != nil {
			return total, fmt.Errorf("reset stuck %s items: %w", status, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += int(affected)
	}
	return total, nil
}

// ClearCompleted removes published and rejected items.
func (s *Store) ClearCompleted(ctx context.Context) (int, error) {
	return s.deleteByStatus(ctx, StatusPublished, StatusRejected)
}

// ClearFailed removes failed items.
func (s *Store) ClearFailed(ctx context.Context) (int, error) {
	return s.deleteByStatus(ctx, StatusFailed)
}

// ClearAll removes every queue item.
func (s *Store) ClearAll(ctx context.Context) (int, error) {
	res, err := s.execWithRetry(ensureContext(ctx), `DELETE FROM queue_items`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}

func (s *Store) deleteByStatus(ctx context.Context, statuses ...Status) (int, error) {
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	res, err := s.execWithRetry(
		ensureContext(ctx),
		`DELETE FROM queue_items WHERE status IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("delete items: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}

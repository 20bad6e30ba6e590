package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RecordPublishEvent appends one publish attempt to the audit log. The
// scheduler's rolling rate limits count committed events only, so an
// attempt must be recorded in the same breath as the outcome it reports.
func (s *Store) RecordPublishEvent(ctx context.Context, event *PublishEvent) error {
	if event == nil {
		return errors.New("publish event is nil")
	}
	ctx = ensureContext(ctx)
	if event.AttemptedAt.IsZero() {
		event.AttemptedAt = time.Now().UTC()
	}
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO publish_events (item_id, attempted_at, success, platform_id, detail)
         VALUES (?, ?, ?, ?, ?)`,
		event.ItemID,
		event.AttemptedAt.UTC().Format(time.RFC3339Nano),
		boolToInt(event.Success),
		nullableString(event.PlatformID),
		nullableString(event.Detail),
	)
	if err != nil {
		return fmt.Errorf("record publish event: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		event.ID = id
	}
	return nil
}

// CountSuccessfulPublishesSince returns how many successful publishes
// happened at or after the cutoff.
func (s *Store) CountSuccessfulPublishesSince(ctx context.Context, cutoff time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT COUNT(1) FROM publish_events WHERE success = 1 AND attempted_at >= ?`,
		cutoff.UTC().Format(time.RFC3339Nano),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count publish events: %w", err)
	}
	return count, nil
}

// LastSuccessfulPublish returns the time of the most recent successful
// publish, or the zero time when none exists.
func (s *Store) LastSuccessfulPublish(ctx context.Context) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT attempted_at FROM publish_events WHERE success = 1 ORDER BY attempted_at DESC LIMIT 1`,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("last publish event: %w", err)
	}
	return parseTimeString(raw)
}

// PublishEventsForItem returns the attempt history for one item, oldest first.
func (s *Store) PublishEventsForItem(ctx context.Context, itemID int64) ([]*PublishEvent, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, item_id, attempted_at, success, platform_id, detail
         FROM publish_events WHERE item_id = ? ORDER BY attempted_at, id`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("query publish events: %w", err)
	}
	defer rows.Close()

	var events []*PublishEvent
	for rows.Next() {
		var (
			event       PublishEvent
			attemptedAt string
			success     int
			platformID  sql.NullString
			detail      sql.NullString
		)
		if err := rows.Scan(&event.ID, &event.ItemID, &attemptedAt, &success, &platformID, &detail); err != nil {
			return nil, err
		}
		event.Success = success != 0
		event.PlatformID = platformID.String
		event.Detail = detail.String
		if t, err := parseTimeString(attemptedAt); err == nil {
			event.AttemptedAt = t
		}
		events = append(events, &event)
	}
	return events, rows.Err()
}

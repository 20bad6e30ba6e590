package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const channelColumns = "id, name, priority_tier, max_tracked_videos, enabled, created_at, updated_at"

// UpsertChannel inserts or updates a tracked channel.
func (s *Store) UpsertChannel(ctx context.Context, ch *Channel) error {
	if ch == nil {
		return errors.New("channel is nil")
	}
	if ch.ID == "" {
		return errors.New("channel id is required")
	}
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO channels (id, name, priority_tier, max_tracked_videos, enabled, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (id) DO UPDATE SET
             name = excluded.name,
             priority_tier = excluded.priority_tier,
             max_tracked_videos = excluded.max_tracked_videos,
             enabled = excluded.enabled,
             updated_at = excluded.updated_at`,
		ch.ID,
		ch.Name,
		ch.PriorityTier,
		ch.MaxTrackedVideos,
		boolToInt(ch.Enabled),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert channel %s: %w", ch.ID, err)
	}
	return nil
}

// GetChannel fetches a channel by identifier.
func (s *Store) GetChannel(ctx context.Context, id string) (*Channel, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+channelColumns+` FROM channels WHERE id = ?`, id)
	ch, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	return ch, nil
}

// ListChannels returns all tracked channels ordered by priority tier then name.
func (s *Store) ListChannels(ctx context.Context) ([]*Channel, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+channelColumns+` FROM channels ORDER BY priority_tier, name`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var channels []*Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// SetChannelEnabled toggles discovery for a channel.
func (s *Store) SetChannelEnabled(ctx context.Context, id string, enabled bool) (bool, error) {
	res, err := s.execWithRetry(
		ensureContext(ctx),
		`UPDATE channels SET enabled = ?, updated_at = ? WHERE id = ?`,
		boolToInt(enabled),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("toggle channel %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// TrackedVideoCount returns how many videos a channel currently owns.
func (s *Store) TrackedVideoCount(ctx context.Context, channelID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT COUNT(1) FROM videos WHERE channel_id = ?`,
		channelID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tracked videos: %w", err)
	}
	return count, nil
}

func scanChannel(scanner interface{ Scan(dest ...any) error }) (*Channel, error) {
	var (
		ch         Channel
		enabled    int
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&ch.ID, &ch.Name, &ch.PriorityTier, &ch.MaxTrackedVideos, &enabled, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	ch.Enabled = enabled != 0
	if created, err := parseTimeString(createdRaw); err == nil {
		ch.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		ch.UpdatedAt = updated
	}
	return &ch, nil
}

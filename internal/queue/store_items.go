package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const itemColumns = "id, video_id, channel_id, title, status, transcript_id, candidate_id, template_id, artifact_path, score, breakdown_json, disposition, review_reason, decided_by, publish_ready_at, scheduled_at, platform_id, stage_attempts, publish_attempts, error_message, created_at, updated_at"

// NewVideoItem inserts a discovered video plus its initial queue item.
func (s *Store) NewVideoItem(ctx context.Context, channelID, title, sourceURL string, durationSeconds float64) (*Item, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO videos (channel_id, title, source_url, duration_seconds, discovered_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		nullableString(channelID),
		title,
		sourceURL,
		durationSeconds,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert video: %w", err)
	}
	videoID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("video insert id: %w", err)
	}

	res, err = tx.ExecContext(
		ctx,
		`INSERT INTO queue_items (video_id, channel_id, title, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		videoID,
		nullableString(channelID),
		title,
		StatusDiscovered,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert queue item: %w", err)
	}
	itemID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("item insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(ctx, itemID)
}

// InsertSibling inserts an additional clip item for the same video at the
// segmentation fan-out point. The sibling enters the pipeline at scored.
// A candidate that already owns an item is never inserted twice; the
// existing item is returned, which keeps a retried fan-out idempotent.
func (s *Store) InsertSibling(ctx context.Context, parent *Item, candidateID string, score int, breakdownJSON, disposition string) (*Item, error) {
	if parent == nil {
		return nil, errors.New("parent item is nil")
	}
	ctx = ensureContext(ctx)

	var existingID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM queue_items WHERE candidate_id = ?`, candidateID,
	).Scan(&existingID)
	if err == nil {
		return s.GetByID(ctx, existingID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("look up sibling candidate: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO queue_items (
            video_id, channel_id, title, status, transcript_id, candidate_id,
            score, breakdown_json, disposition, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		parent.VideoID,
		nullableString(parent.ChannelID),
		parent.Title,
		StatusScored,
		parent.TranscriptID,
		candidateID,
		score,
		nullableString(breakdownJSON),
		nullableString(disposition),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert sibling item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("sibling insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a queue item by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// Update persists mutable fields of an existing queue item without
// touching its status. Status changes go through Transition.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	ctx = ensureContext(ctx)
	item.UpdatedAt = time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
         SET title = ?, transcript_id = ?, candidate_id = ?, template_id = ?,
             artifact_path = ?, score = ?, breakdown_json = ?, disposition = ?,
             review_reason = ?, decided_by = ?, publish_ready_at = ?, scheduled_at = ?,
             platform_id = ?, stage_attempts = ?, publish_attempts = ?, error_message = ?,
             updated_at = ?
         WHERE id = ?`,
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
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// List returns queue items filtered by status set (or all items when no
// status is provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	ctx = ensureContext(ctx)
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM queue_items`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// NextForStatuses returns the oldest item matching any of the provided statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	ctx = ensureContext(ctx)
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	query := `SELECT ` + itemColumns + ` FROM queue_items WHERE status IN (` + placeholders + `) ORDER BY created_at, id LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// PublishReadyFIFO returns publish_ready items ordered by the time they
// first became publish-ready, bounding staleness for the scheduler.
func (s *Store) PublishReadyFIFO(ctx context.Context) ([]*Item, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+itemColumns+` FROM queue_items
         WHERE status = ?
         ORDER BY publish_ready_at, id`,
		StatusPublishReady,
	)
	if err != nil {
		return nil, fmt.Errorf("query publish ready: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Remove deletes an item by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ensureContext(ctx), `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id              int64
		videoID         int64
		channelID       sql.NullString
		title           sql.NullString
		statusStr       string
		transcriptID    sql.NullInt64
		candidateID     sql.NullString
		templateID      sql.NullString
		artifactPath    sql.NullString
		score           sql.NullInt64
		breakdown       sql.NullString
		disposition     sql.NullString
		reviewReason    sql.NullString
		decidedBy       sql.NullString
		publishReadyRaw sql.NullString
		scheduledRaw    sql.NullString
		platformID      sql.NullString
		stageAttempts   sql.NullInt64
		publishAttempts sql.NullInt64
		errorMessage    sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&videoID,
		&channelID,
		&title,
		&statusStr,
		&transcriptID,
		&candidateID,
		&templateID,
		&artifactPath,
		&score,
		&breakdown,
		&disposition,
		&reviewReason,
		&decidedBy,
		&publishReadyRaw,
		&scheduledRaw,
		&platformID,
		&stageAttempts,
		&publishAttempts,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:              id,
		VideoID:         videoID,
		ChannelID:       channelID.String,
		Title:           title.String,
		Status:          Status(statusStr),
		TranscriptID:    transcriptID.Int64,
		CandidateID:     candidateID.String,
		TemplateID:      templateID.String,
		ArtifactPath:    artifactPath.String,
		Score:           int(score.Int64),
		BreakdownJSON:   breakdown.String,
		Disposition:     disposition.String,
		ReviewReason:    reviewReason.String,
		DecidedBy:       decidedBy.String,
		PlatformID:      platformID.String,
		StageAttempts:   int(stageAttempts.Int64),
		PublishAttempts: int(publishAttempts.Int64),
		ErrorMessage:    errorMessage.String,
	}

	if publishReadyRaw.Valid {
		if t, err := parseTimeString(publishReadyRaw.String); err == nil {
			item.PublishReadyAt = &t
		}
	}
	if scheduledRaw.Valid {
		if t, err := parseTimeString(scheduledRaw.String); err == nil {
			item.ScheduledAt = &t
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

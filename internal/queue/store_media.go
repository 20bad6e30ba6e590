package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SaveTranscript stores an immutable transcription attempt for a video.
// Re-transcribing inserts a new row; old attempts stay queryable.
func (s *Store) SaveTranscript(ctx context.Context, videoID int64, language string, segments []TranscriptSegment) (*Transcript, error) {
	ctx = ensureContext(ctx)
	if segments == nil {
		segments = []TranscriptSegment{}
	}
	payload, err := json.Marshal(segments)
	if err != nil {
		return nil, fmt.Errorf("marshal transcript segments: %w", err)
	}
	now := time.Now().UTC()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO transcripts (video_id, language, segments_json, created_at) VALUES (?, ?, ?, ?)`,
		videoID,
		nullableString(language),
		string(payload),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert transcript: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("transcript insert id: %w", err)
	}
	return &Transcript{ID: id, VideoID: videoID, Language: language, Segments: segments, CreatedAt: now}, nil
}

// GetTranscript fetches a transcript by identifier.
func (s *Store) GetTranscript(ctx context.Context, id int64) (*Transcript, error) {
	ctx = ensureContext(ctx)
	var (
		t            Transcript
		language     sql.NullString
		segmentsJSON string
		createdRaw   string
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, video_id, language, segments_json, created_at FROM transcripts WHERE id = ?`,
		id,
	).Scan(&t.ID, &t.VideoID, &language, &segmentsJSON, &createdRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transcript: %w", err)
	}
	t.Language = language.String
	if err := json.Unmarshal([]byte(segmentsJSON), &t.Segments); err != nil {
		return nil, fmt.Errorf("decode transcript segments: %w", err)
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		t.CreatedAt = created
	}
	return &t, nil
}

// SaveCandidates stores the segment candidates produced for a
// transcript. Rows with an already-stored id are replaced, so a retried
// segmentation pass rewrites its earlier output instead of duplicating it.
func (s *Store) SaveCandidates(ctx context.Context, candidates []*Candidate) error {
	if len(candidates) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range candidates {
		keywords, err := json.Marshal(c.Keywords)
		if err != nil {
			return fmt.Errorf("marshal candidate keywords: %w", err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT OR REPLACE INTO segment_candidates (
                id, transcript_id, start_seconds, end_seconds, duration_seconds,
                text, keywords_json, relevance, created_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID,
			c.TranscriptID,
			c.StartSeconds,
			c.EndSeconds,
			c.DurationSeconds,
			nullableString(c.Text),
			string(keywords),
			c.Relevance,
			now,
		); err != nil {
			return fmt.Errorf("insert candidate %s: %w", c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit candidates: %w", err)
	}
	return nil
}

// CandidatesForTranscript lists the stored candidates for a transcript,
// best first.
func (s *Store) CandidatesForTranscript(ctx context.Context, transcriptID int64) ([]*Candidate, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, transcript_id, start_seconds, end_seconds, duration_seconds,
                text, keywords_json, relevance, created_at
         FROM segment_candidates WHERE transcript_id = ?
         ORDER BY relevance DESC, start_seconds ASC`,
		transcriptID,
	)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*Candidate
	for rows.Next() {
		var (
			c            Candidate
			text         sql.NullString
			keywordsJSON sql.NullString
			createdRaw   string
		)
		if err := rows.Scan(&c.ID, &c.TranscriptID, &c.StartSeconds, &c.EndSeconds, &c.DurationSeconds,
			&text, &keywordsJSON, &c.Relevance, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c.Text = text.String
		if keywordsJSON.Valid && keywordsJSON.String != "" {
			if err := json.Unmarshal([]byte(keywordsJSON.String), &c.Keywords); err != nil {
				return nil, fmt.Errorf("decode candidate keywords: %w", err)
			}
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			c.CreatedAt = created
		}
		candidates = append(candidates, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return candidates, nil
}

// GetCandidate fetches a segment candidate by identifier.
func (s *Store) GetCandidate(ctx context.Context, id string) (*Candidate, error) {
	ctx = ensureContext(ctx)
	var (
		c            Candidate
		text         sql.NullString
		keywordsJSON sql.NullString
		createdRaw   string
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, transcript_id, start_seconds, end_seconds, duration_seconds,
                text, keywords_json, relevance, created_at
         FROM segment_candidates WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.TranscriptID, &c.StartSeconds, &c.EndSeconds, &c.DurationSeconds, &text, &keywordsJSON, &c.Relevance, &createdRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	c.Text = text.String
	if keywordsJSON.Valid && keywordsJSON.String != "" {
		if err := json.Unmarshal([]byte(keywordsJSON.String), &c.Keywords); err != nil {
			return nil, fmt.Errorf("decode candidate keywords: %w", err)
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		c.CreatedAt = created
	}
	return &c, nil
}

// GetVideo fetches a video by identifier.
func (s *Store) GetVideo(ctx context.Context, id int64) (*Video, error) {
	ctx = ensureContext(ctx)
	var (
		v             Video
		channelID     sql.NullString
		discoveredRaw string
		updatedRaw    string
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, channel_id, title, source_url, duration_seconds, discovered_at, updated_at
         FROM videos WHERE id = ?`,
		id,
	).Scan(&v.ID, &channelID, &v.Title, &v.SourceURL, &v.DurationSeconds, &discoveredRaw, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	v.ChannelID = channelID.String
	if discovered, err := parseTimeString(discoveredRaw); err == nil {
		v.DiscoveredAt = discovered
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		v.UpdatedAt = updated
	}
	return &v, nil
}

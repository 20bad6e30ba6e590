package segmenting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"shortpipe/internal/config"
	"shortpipe/internal/logging"
	"shortpipe/internal/queue"
	"shortpipe/internal/scoring"
	"shortpipe/internal/services"
	"shortpipe/internal/stage"
)

// Segmenter is the stage handler that cuts a transcript into candidate
// clips, scores every kept candidate, and fans the pipeline out: the
// top candidate stays bound to the current item and each additional
// candidate becomes a sibling item entering at scored.
type Segmenter struct {
	store      *queue.Store
	cfg        *config.Config
	logger     *slog.Logger
	compositor services.Compositor
}

// NewSegmenter constructs the segmenting stage handler.
func NewSegmenter(cfg *config.Config, store *queue.Store, logger *slog.Logger, compositor services.Compositor) *Segmenter {
	return &Segmenter{
		store:      store,
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "segmenter"),
		compositor: compositor,
	}
}

func (s *Segmenter) Prepare(ctx context.Context, item *queue.Item) error {
	if item.TranscriptID == 0 {
		return services.Wrap(services.ErrPermanent, "segmenting", "validate inputs",
			"item has no transcript; run transcription first", nil)
	}
	item.ErrorMessage = ""
	return nil
}

func (s *Segmenter) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)

	transcript, err := s.store.GetTranscript(ctx, item.TranscriptID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "segmenting", "load transcript", "", err)
	}
	if transcript == nil {
		return services.Wrap(services.ErrPermanent, "segmenting", "load transcript",
			fmt.Sprintf("transcript %d not found", item.TranscriptID), nil)
	}

	video, err := s.store.GetVideo(ctx, item.VideoID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "segmenting", "load video", "", err)
	}
	if video == nil {
		return services.Wrap(services.ErrPermanent, "segmenting", "load video",
			fmt.Sprintf("video %d not found", item.VideoID), nil)
	}

	spans, err := Segment(transcript.Segments, Options{
		MinDuration:      s.cfg.Segmenter.MinDuration,
		MaxDuration:      s.cfg.Segmenter.MaxDuration,
		Keywords:         s.cfg.Segmenter.Keywords,
		OverlapThreshold: s.cfg.Segmenter.OverlapThreshold,
	})
	if err != nil {
		return err
	}
	if len(spans) == 0 {
		return services.Wrap(services.ErrPermanent, "segmenting", "extract candidates",
			"no candidate spans within duration bounds", nil)
	}

	candidates := make([]*queue.Candidate, 0, len(spans))
	for _, span := range spans {
		candidates = append(candidates, &queue.Candidate{
			ID:              candidateID(transcript.ID, span),
			TranscriptID:    transcript.ID,
			StartSeconds:    span.Start,
			EndSeconds:      span.End,
			DurationSeconds: span.Duration,
			Text:            span.Text,
			Keywords:        span.Keywords,
			Relevance:       span.Relevance,
		})
	}
	if err := s.store.SaveCandidates(ctx, candidates); err != nil {
		return services.Wrap(services.ErrTransient, "segmenting", "persist candidates", "", err)
	}

	logger.Info("candidates extracted",
		logging.Int("candidates", len(candidates)),
		logging.Int64(logging.FieldVideoID, video.ID),
	)

	bounds := scoring.Bounds{
		MinDuration: s.cfg.Segmenter.MinDuration,
		MaxDuration: s.cfg.Segmenter.MaxDuration,
	}
	thresholds := scoring.Thresholds{
		Approve: s.cfg.Scoring.ApproveThreshold,
		Reject:  s.cfg.Scoring.RejectThreshold,
	}

	type scored struct {
		candidate   *queue.Candidate
		score       int
		breakdown   string
		disposition string
	}
	results := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		signals, err := s.compositor.Analyze(ctx, services.AnalyzeRequest{
			VideoID:   video.ID,
			SourceURL: video.SourceURL,
			Candidate: *candidate,
		})
		if err != nil {
			return services.Wrap(services.ErrTransient, "segmenting", "analyze candidate", candidate.ID, err)
		}
		score, breakdown, err := scoring.Score(signals, *candidate, bounds)
		if err != nil {
			return err
		}
		breakdownJSON, err := breakdown.JSON()
		if err != nil {
			return services.Wrap(services.ErrPermanent, "segmenting", "encode breakdown", candidate.ID, err)
		}
		disposition, err := scoring.Disposition(score, thresholds)
		if err != nil {
			return err
		}
		results = append(results, scored{
			candidate:   candidate,
			score:       score,
			breakdown:   breakdownJSON,
			disposition: disposition,
		})
	}

	// Candidates arrive relevance-sorted; the first stays on this item.
	top := results[0]
	item.CandidateID = top.candidate.ID
	item.Score = top.score
	item.BreakdownJSON = top.breakdown
	item.Disposition = top.disposition

	for _, result := range results[1:] {
		sibling, err := s.store.InsertSibling(ctx, item, result.candidate.ID, result.score, result.breakdown, result.disposition)
		if err != nil {
			return services.Wrap(services.ErrTransient, "segmenting", "insert sibling item", result.candidate.ID, err)
		}
		logger.Info("sibling clip queued",
			logging.Int64(logging.FieldItemID, sibling.ID),
			logging.String(logging.FieldCandidate, result.candidate.ID),
			logging.Int(logging.FieldScore, result.score),
		)
	}
	return nil
}

// candidateID derives a stable identifier from the span's position in
// its transcript. A retried stage run regenerates the same ids, so
// persistence rewrites the earlier rows instead of duplicating them.
func candidateID(transcriptID int64, span Span) string {
	seed := fmt.Sprintf("%d:%.3f:%.3f", transcriptID, span.Start, span.End)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

func (s *Segmenter) HealthCheck(ctx context.Context) stage.Health {
	if s.compositor == nil {
		return stage.Unhealthy("segmenter", "compositor collaborator not configured")
	}
	if s.cfg.Segmenter.MinDuration > s.cfg.Segmenter.MaxDuration {
		return stage.Unhealthy("segmenter", "invalid duration bounds")
	}
	return stage.Healthy("segmenter")
}

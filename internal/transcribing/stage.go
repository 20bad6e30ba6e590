package transcribing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/language"

	"shortpipe/internal/config"
	"shortpipe/internal/logging"
	"shortpipe/internal/queue"
	"shortpipe/internal/services"
	"shortpipe/internal/stage"
)

// Transcriber is the stage handler that produces a transcript for a
// discovered video via the external transcription collaborator.
type Transcriber struct {
	store   *queue.Store
	cfg     *config.Config
	logger  *slog.Logger
	service services.Transcriber
}

// NewTranscriber constructs the transcription stage handler.
func NewTranscriber(cfg *config.Config, store *queue.Store, logger *slog.Logger, service services.Transcriber) *Transcriber {
	return &Transcriber{
		store:   store,
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "transcriber"),
		service: service,
	}
}

func (t *Transcriber) Prepare(ctx context.Context, item *queue.Item) error {
	if item.VideoID == 0 {
		return services.Wrap(services.ErrPermanent, "transcribing", "validate inputs",
			"item has no video", nil)
	}
	item.ErrorMessage = ""
	return nil
}

func (t *Transcriber) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)

	video, err := t.store.GetVideo(ctx, item.VideoID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "transcribing", "load video", "", err)
	}
	if video == nil {
		return services.Wrap(services.ErrPermanent, "transcribing", "load video",
			fmt.Sprintf("video %d not found", item.VideoID), nil)
	}

	timeout := time.Duration(t.cfg.Transcriber.RequestTimeout) * time.Second
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := t.service.Transcribe(callCtx, services.TranscribeRequest{
		VideoID:   video.ID,
		SourceURL: video.SourceURL,
		Language:  t.cfg.Transcriber.Language,
	})
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return services.Wrap(services.ErrTimeout, "transcribing", "transcribe",
				fmt.Sprintf("no response within %s", timeout), err)
		}
		return services.Wrap(services.ErrTransient, "transcribing", "transcribe", "", err)
	}

	transcript, err := t.store.SaveTranscript(ctx, video.ID, normalizeLanguage(result.Language), result.Segments)
	if err != nil {
		return services.Wrap(services.ErrTransient, "transcribing", "persist transcript", "", err)
	}
	item.TranscriptID = transcript.ID

	logger.Info("transcript stored",
		logging.Int64(logging.FieldVideoID, video.ID),
		logging.Int("segments", len(transcript.Segments)),
		logging.String("language", transcript.Language),
	)
	return nil
}

func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	if t.service == nil {
		return stage.Unhealthy("transcriber", "transcription collaborator not configured")
	}
	return stage.Healthy("transcriber")
}

// normalizeLanguage canonicalizes a collaborator-reported language tag
// (e.g. "EN-us" -> "en-US"). Unparseable tags pass through untouched so
// the raw value stays inspectable.
func normalizeLanguage(tag string) string {
	if tag == "" {
		return ""
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	return parsed.String()
}

package rendering

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shortpipe/internal/config"
	"shortpipe/internal/logging"
	"shortpipe/internal/queue"
	"shortpipe/internal/services"
	"shortpipe/internal/stage"
	"shortpipe/internal/textutil"
)

// Renderer is the stage handler that turns an approved clip into a
// published-ready artifact via the compositor collaborator.
type Renderer struct {
	store      *queue.Store
	cfg        *config.Config
	logger     *slog.Logger
	compositor services.Compositor
}

// NewRenderer constructs the render stage handler.
func NewRenderer(cfg *config.Config, store *queue.Store, logger *slog.Logger, compositor services.Compositor) *Renderer {
	return &Renderer{
		store:      store,
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "renderer"),
		compositor: compositor,
	}
}

func (r *Renderer) Prepare(ctx context.Context, item *queue.Item) error {
	if item.CandidateID == "" {
		return services.Wrap(services.ErrPermanent, "rendering", "validate inputs",
			"item has no bound candidate", nil)
	}
	if item.TemplateID == "" {
		return services.Wrap(services.ErrPermanent, "rendering", "validate inputs",
			"item has no assigned template", nil)
	}
	item.ErrorMessage = ""
	return nil
}

func (r *Renderer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, r.logger)

	candidate, err := r.store.GetCandidate(ctx, item.CandidateID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "rendering", "load candidate", "", err)
	}
	if candidate == nil {
		return services.Wrap(services.ErrPermanent, "rendering", "load candidate",
			fmt.Sprintf("candidate %s not found", item.CandidateID), nil)
	}
	video, err := r.store.GetVideo(ctx, item.VideoID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "rendering", "load video", "", err)
	}
	if video == nil {
		return services.Wrap(services.ErrPermanent, "rendering", "load video",
			fmt.Sprintf("video %d not found", item.VideoID), nil)
	}

	result, err := r.compositor.Render(ctx, services.RenderRequest{
		ItemID:     item.ID,
		SourceURL:  video.SourceURL,
		Candidate:  *candidate,
		TemplateID: item.TemplateID,
		OutputDir:  r.cfg.Paths.ArtifactDir,
		BaseName:   fmt.Sprintf("clip-%d-%s", item.ID, textutil.SanitizeToken(item.Title)),
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "rendering", "render composite", "", err)
	}
	if strings.TrimSpace(result.ArtifactPath) == "" {
		return services.Wrap(services.ErrPermanent, "rendering", "render composite",
			"compositor returned no artifact path", nil)
	}

	now := time.Now().UTC()
	item.ArtifactPath = result.ArtifactPath
	item.PublishReadyAt = &now

	logger.Info("composite rendered",
		logging.String("artifact", result.ArtifactPath),
		logging.String(logging.FieldTemplate, item.TemplateID),
	)
	return nil
}

func (r *Renderer) HealthCheck(ctx context.Context) stage.Health {
	if r.compositor == nil {
		return stage.Unhealthy("renderer", "compositor collaborator not configured")
	}
	if strings.TrimSpace(r.cfg.Paths.ArtifactDir) == "" {
		return stage.Unhealthy("renderer", "artifact directory not configured")
	}
	return stage.Healthy("renderer")
}

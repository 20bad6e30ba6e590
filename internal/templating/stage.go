package templating

import (
	"context"
	"fmt"
	"log/slog"

	"shortpipe/internal/config"
	"shortpipe/internal/logging"
	"shortpipe/internal/queue"
	"shortpipe/internal/services"
	"shortpipe/internal/stage"
)

// Selector is the stage handler binding a presentation template to a
// scored clip. The stage has no processing status: assignment is a
// single compare-and-set from scored to template_assigned.
type Selector struct {
	store   *queue.Store
	cfg     *config.Config
	logger  *slog.Logger
	catalog *Catalog
}

// NewSelector constructs the template selection stage handler.
func NewSelector(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Selector {
	return &Selector{
		store:   store,
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "template-selector"),
		catalog: NewCatalog(cfg.Templates),
	}
}

func (s *Selector) Prepare(ctx context.Context, item *queue.Item) error {
	if item.CandidateID == "" {
		return services.Wrap(services.ErrPermanent, "templating", "validate inputs",
			"item has no bound candidate; run segmentation first", nil)
	}
	item.ErrorMessage = ""
	return nil
}

func (s *Selector) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)

	candidate, err := s.store.GetCandidate(ctx, item.CandidateID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "templating", "load candidate", "", err)
	}
	if candidate == nil {
		return services.Wrap(services.ErrPermanent, "templating", "load candidate",
			fmt.Sprintf("candidate %s not found", item.CandidateID), nil)
	}

	selected, err := s.catalog.Select(Attributes{
		ContentType: DetectContentType(item.Title),
		Score:       item.Score,
		Duration:    candidate.DurationSeconds,
	})
	if err != nil {
		return err
	}

	item.TemplateID = selected.ID
	logger.Info("template assigned",
		logging.String(logging.FieldTemplate, selected.ID),
		logging.Int(logging.FieldScore, item.Score),
	)
	return nil
}

func (s *Selector) HealthCheck(ctx context.Context) stage.Health {
	if len(s.cfg.EnabledTemplates()) == 0 {
		return stage.Unhealthy("template-selector", "no enabled templates in catalog")
	}
	return stage.Healthy("template-selector")
}

package scoring

import (
	"context"
	"fmt"
	"log/slog"

	"shortpipe/internal/config"
	"shortpipe/internal/logging"
	"shortpipe/internal/notifications"
	"shortpipe/internal/queue"
	"shortpipe/internal/services"
	"shortpipe/internal/stage"
)

// DecidedByAuto marks dispositions taken by the scorer rather than an operator.
const DecidedByAuto = "auto"

// Dispositioner is the stage handler that routes a template-assigned
// clip by its persisted disposition: auto-approve and auto-reject move
// on immediately, manual-review parks the item for an operator. Like
// template assignment this is a single compare-and-set stage.
type Dispositioner struct {
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service
}

// NewDispositioner constructs the disposition stage handler.
func NewDispositioner(cfg *config.Config, logger *slog.Logger, notifier notifications.Service) *Dispositioner {
	return &Dispositioner{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "dispositioner"),
		notifier: notifier,
	}
}

func (d *Dispositioner) Prepare(ctx context.Context, item *queue.Item) error {
	item.ErrorMessage = ""
	return nil
}

func (d *Dispositioner) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, d.logger)

	target, err := StatusForDisposition(item.Disposition)
	if err != nil {
		return err
	}

	switch target {
	case queue.StatusApproved, queue.StatusRejected:
		item.DecidedBy = DecidedByAuto
	case queue.StatusPendingReview:
		item.ReviewReason = fmt.Sprintf("score %d between thresholds (reject %d, approve %d)",
			item.Score, d.cfg.Scoring.RejectThreshold, d.cfg.Scoring.ApproveThreshold)
		if d.notifier != nil {
			if err := d.notifier.NotifyPendingReview(ctx, item.Title, item.Score); err != nil {
				logger.Warn("review notification failed", logging.Error(err))
			}
		}
	}

	logger.Info("disposition applied",
		logging.String("disposition", item.Disposition),
		logging.String(logging.FieldToStatus, string(target)),
		logging.Int(logging.FieldScore, item.Score),
	)
	return nil
}

func (d *Dispositioner) HealthCheck(ctx context.Context) stage.Health {
	thresholds := Thresholds{Approve: d.cfg.Scoring.ApproveThreshold, Reject: d.cfg.Scoring.RejectThreshold}
	if err := thresholds.Validate(); err != nil {
		return stage.Unhealthy("dispositioner", err.Error())
	}
	return stage.Healthy("dispositioner")
}

// StatusForDisposition maps a persisted disposition onto the status the
// item moves to when the disposition stage completes.
func StatusForDisposition(disposition string) (queue.Status, error) {
	switch disposition {
	case DispositionAutoApprove:
		return queue.StatusApproved, nil
	case DispositionAutoReject:
		return queue.StatusRejected, nil
	case DispositionManualReview:
		return queue.StatusPendingReview, nil
	default:
		return "", services.Wrap(services.ErrPermanent, "scoring", "resolve disposition",
			fmt.Sprintf("unknown disposition %q", disposition), nil)
	}
}

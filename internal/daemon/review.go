package daemon

import (
	"context"
	"errors"
	"strings"

	"shortpipe/internal/logging"
	"shortpipe/internal/queue"
)

// Approve moves pending-review items to approved. Each item is decided
// independently: a clip that was already decided elsewhere reports a
// conflict in its result instead of blocking the rest.
func (d *Daemon) Approve(ctx context.Context, ids []int64, decidedBy string) ([]queue.BulkResult, error) {
	decidedBy = strings.TrimSpace(decidedBy)
	if decidedBy == "" {
		return nil, errors.New("approve requires a reviewer identity")
	}
	if len(ids) == 0 {
		return nil, errors.New("approve requires at least one item id")
	}

	results := d.store.BulkTransition(ctx, ids, queue.StatusPendingReview, queue.StatusApproved, func(it *queue.Item) {
		it.DecidedBy = decidedBy
		it.ReviewReason = ""
		it.ErrorMessage = ""
	})
	d.logReviewOutcome("approve", decidedBy, results)
	return results, nil
}

// Reject moves pending-review items to rejected with an optional reason.
func (d *Daemon) Reject(ctx context.Context, ids []int64, decidedBy, reason string) ([]queue.BulkResult, error) {
	decidedBy = strings.TrimSpace(decidedBy)
	if decidedBy == "" {
		return nil, errors.New("reject requires a reviewer identity")
	}
	if len(ids) == 0 {
		return nil, errors.New("reject requires at least one item id")
	}

	results := d.store.BulkTransition(ctx, ids, queue.StatusPendingReview, queue.StatusRejected, func(it *queue.Item) {
		it.DecidedBy = decidedBy
		if reason != "" {
			it.ReviewReason = reason
		}
		it.ErrorMessage = ""
	})
	d.logReviewOutcome("reject", decidedBy, results)
	return results, nil
}

func (d *Daemon) logReviewOutcome(action, decidedBy string, results []queue.BulkResult) {
	decided := 0
	for _, result := range results {
		if result.Err == nil {
			decided++
		}
	}
	d.logger.Info("review decision applied",
		logging.String(logging.FieldEventType, "review_"+action),
		logging.String("decided_by", decidedBy),
		logging.Int("decided", decided),
		logging.Int("requested", len(results)),
	)
}

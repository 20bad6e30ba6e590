package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"shortpipe/internal/logging"
	"shortpipe/internal/queue"
	"shortpipe/internal/services"
)

// handleStageFailure classifies a stage error and records the outcome.
// Transient failures within the retry budget put the item back where the
// stage found it so the next poll retries; everything else marks the
// item failed. The item itself never blocks the queue either way, so the
// returned error only tells the run loop to back off.
func (m *Manager) handleStageFailure(ctx context.Context, item *queue.Item, stg pipelineStage, holding queue.Status, op string, cause error) error {
	logger := logging.WithContext(ctx, m.logger)
	message := fmt.Sprintf("%s %s: %v", stg.name, op, cause)

	if services.IsTransient(cause) {
		attempts := item.StageAttempts + 1
		if attempts <= m.stageRetryLimit {
			logger.Warn("transient stage failure, will retry",
				logging.Int(logging.FieldAttempt, attempts),
				logging.Error(cause),
			)
			m.releaseForRetry(ctx, item, stg, holding, attempts, message, logger)
			m.noteError(message)
			return fmt.Errorf("stage %s: %w", stg.name, cause)
		}
		message = fmt.Sprintf("%s (retries exhausted after %d attempts)", message, attempts)
	}

	if _, err := m.store.Fail(ctx, item.ID, message); err != nil {
		logger.Error("mark item failed", logging.Error(err))
	}
	logger.Error("stage failed",
		logging.String(logging.FieldEventType, "stage_failed"),
		logging.String(logging.FieldStatus, string(holding)),
		logging.Error(cause),
	)
	m.noteError(message)

	if m.notifier != nil {
		label := fmt.Sprintf("%s stage, item %d", stg.name, item.ID)
		if err := m.notifier.NotifyError(ctx, cause, label); err != nil {
			logger.Warn("failure notification", logging.Error(err))
		}
	}
	return fmt.Errorf("stage %s: %w", stg.name, cause)
}

// releaseForRetry returns a transiently-failed item to the stage's start
// status with the bumped attempt count. Single-write stages never left
// their start status, so only the bookkeeping columns change.
func (m *Manager) releaseForRetry(ctx context.Context, item *queue.Item, stg pipelineStage, holding queue.Status, attempts int, message string, logger *slog.Logger) {
	if stg.processingStatus != "" && holding == stg.processingStatus {
		if err := m.store.ReleaseClaim(ctx, item.ID, holding, stg.startStatus, attempts, message); err != nil {
			logger.Error("release claim", logging.Error(err))
		}
		return
	}
	item.StageAttempts = attempts
	item.ErrorMessage = message
	if err := m.store.Update(ctx, item); err != nil {
		logger.Error("record stage attempt", logging.Error(err))
	}
}

package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"shortpipe/internal/logging"
	"shortpipe/internal/queue"
	"shortpipe/internal/services"
)

// processItem runs one item through the stage registered for its
// status. Stages with a processing status are first claimed via a
// compare-and-set into that status; a conflict there means another
// writer got the item and is not an error. The returned error signals
// the run loop to back off before the next poll.
func (m *Manager) processItem(ctx context.Context, item *queue.Item) error {
	stg, ok := m.stageByStart[item.Status]
	if !ok {
		return fmt.Errorf("no stage registered for status %s", item.Status)
	}

	ctx = services.WithRequestID(ctx, uuid.NewString())
	ctx = services.WithItemID(ctx, item.ID)
	ctx = services.WithStage(ctx, stg.name)
	logger := logging.WithContext(ctx, m.logger)

	holding := stg.startStatus
	if stg.processingStatus != "" {
		claimed, err := m.store.Transition(ctx, item.ID, stg.startStatus, stg.processingStatus, func(it *queue.Item) {
			it.ErrorMessage = ""
		})
		if err != nil {
			if queue.IsConflict(err) {
				logger.Debug("item claimed by another writer",
					logging.String(logging.FieldStatus, string(item.Status)))
				return nil
			}
			return fmt.Errorf("claim item %d: %w", item.ID, err)
		}
		item = claimed
		holding = stg.processingStatus
	}

	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_started"),
		logging.String(logging.FieldStatus, string(holding)),
	)

	if err := stg.handler.Prepare(ctx, item); err != nil {
		return m.handleStageFailure(ctx, item, stg, holding, "prepare", err)
	}
	if err := stg.handler.Execute(ctx, item); err != nil {
		return m.handleStageFailure(ctx, item, stg, holding, "execute", err)
	}

	done := stg.doneStatus
	if stg.doneFor != nil {
		var err error
		done, err = stg.doneFor(item)
		if err != nil {
			return m.handleStageFailure(ctx, item, stg, holding, "resolve outcome", err)
		}
	}

	payload := *item
	advanced, err := m.store.Transition(ctx, item.ID, holding, done, func(it *queue.Item) {
		copyPayload(it, &payload)
		it.StageAttempts = 0
		it.ErrorMessage = ""
	})
	if err != nil {
		if queue.IsConflict(err) {
			logger.Warn("item advanced by another writer",
				logging.String(logging.FieldToStatus, string(done)))
			return nil
		}
		return fmt.Errorf("advance item %d: %w", item.ID, err)
	}

	m.noteItem(advanced)
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_completed"),
		logging.String(logging.FieldFromStatus, string(holding)),
		logging.String(logging.FieldToStatus, string(done)),
	)
	return nil
}

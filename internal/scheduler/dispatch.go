package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shortpipe/internal/logging"
	"shortpipe/internal/queue"
	"shortpipe/internal/services"
)

// dispatch runs one scheduling pass: check the window and rolling
// limits, pick the oldest publish-ready clip, and attempt it. At most
// one publish happens per tick; the minimum-interval rule makes a
// faster cadence pointless anyway.
func (s *Scheduler) dispatch(ctx context.Context) error {
	now := s.clock.Now()

	if !s.withinWindow(now) {
		return nil
	}

	published, err := s.store.CountSuccessfulPublishesSince(ctx, now.UTC().Add(-24*time.Hour))
	if err != nil {
		return fmt.Errorf("count recent publishes: %w", err)
	}
	if published >= s.maxPerDay {
		s.logger.Debug("daily publish ceiling reached",
			logging.Int("published_last_24h", published),
			logging.Int("max_per_day", s.maxPerDay),
		)
		return nil
	}

	if s.minInterval > 0 {
		last, err := s.store.LastSuccessfulPublish(ctx)
		if err != nil {
			return fmt.Errorf("last publish time: %w", err)
		}
		if !last.IsZero() && now.UTC().Sub(last) < s.minInterval {
			return nil
		}
	}

	items, err := s.store.PublishReadyFIFO(ctx)
	if err != nil {
		return fmt.Errorf("list publish ready: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	return s.publishItem(ctx, items[0], now.UTC())
}

// withinWindow reports whether dispatch is allowed at t. No configured
// windows means any time of day is fine.
func (s *Scheduler) withinWindow(t time.Time) bool {
	if len(s.windows) == 0 {
		return true
	}
	for _, window := range s.windows {
		if window.Contains(t) {
			return true
		}
	}
	return false
}

// publishItem claims one clip into scheduled and runs a single publish
// attempt against the platform collaborator. The attempt itself runs on
// a detached context so daemon shutdown never cancels a publish that
// may already have reached the platform.
func (s *Scheduler) publishItem(ctx context.Context, item *queue.Item, now time.Time) error {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	ctx = services.WithItemID(ctx, item.ID)
	ctx = services.WithStage(ctx, "publish")
	logger := logging.WithContext(ctx, s.logger)

	claimed, err := s.store.Transition(ctx, item.ID, queue.StatusPublishReady, queue.StatusScheduled, func(it *queue.Item) {
		scheduledAt := now
		it.ScheduledAt = &scheduledAt
		it.ErrorMessage = ""
	})
	if err != nil {
		if queue.IsConflict(err) {
			logger.Debug("item claimed by another writer")
			return nil
		}
		return fmt.Errorf("claim item %d: %w", item.ID, err)
	}

	logger.Info("publish attempt started",
		logging.String(logging.FieldEventType, "publish_started"),
		logging.Int(logging.FieldAttempt, claimed.PublishAttempts+1),
	)

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	result, pubErr := s.publisher.Publish(callCtx, services.PublishRequest{
		ItemID:       claimed.ID,
		ArtifactPath: claimed.ArtifactPath,
		Title:        claimed.Title,
		TemplateID:   claimed.TemplateID,
	})

	event := &queue.PublishEvent{
		ItemID:      claimed.ID,
		AttemptedAt: s.clock.Now().UTC(),
		Success:     pubErr == nil,
		PlatformID:  s.cfg.Publisher.PlatformID,
	}
	if pubErr == nil {
		if result.PlatformID != "" {
			event.PlatformID = result.PlatformID
		}
		event.Detail = result.Detail
	} else {
		event.Detail = pubErr.Error()
	}
	if err := s.store.RecordPublishEvent(ctx, event); err != nil {
		logger.Error("record publish event", logging.Error(err))
	}

	if pubErr != nil {
		return s.handlePublishFailure(ctx, claimed, pubErr, callCtx.Err() == context.DeadlineExceeded)
	}

	if _, err := s.store.Transition(ctx, claimed.ID, queue.StatusScheduled, queue.StatusPublished, func(it *queue.Item) {
		it.PlatformID = event.PlatformID
		it.ErrorMessage = ""
	}); err != nil {
		return fmt.Errorf("mark published: %w", err)
	}

	logger.Info("clip published",
		logging.String(logging.FieldEventType, "publish_succeeded"),
		logging.String(logging.FieldPlatform, event.PlatformID),
	)
	if err := s.notifier.NotifyPublished(ctx, claimed.Title, event.PlatformID); err != nil {
		logger.Warn("publish notification", logging.Error(err))
	}
	return nil
}

// handlePublishFailure routes a failed attempt. Transient failures and
// timeouts within the retry budget go back to publish_ready to wait for
// a later tick; permanent failures and exhausted budgets fail the clip.
func (s *Scheduler) handlePublishFailure(ctx context.Context, item *queue.Item, cause error, timedOut bool) error {
	logger := logging.WithContext(ctx, s.logger)
	attempts := item.PublishAttempts + 1
	transient := timedOut || services.IsTransient(cause)

	if transient && attempts <= s.retryLimit {
		logger.Warn("publish attempt failed, will retry",
			logging.Int(logging.FieldAttempt, attempts),
			logging.Int("retry_limit", s.retryLimit),
			logging.Error(cause),
		)
		if _, err := s.store.Transition(ctx, item.ID, queue.StatusScheduled, queue.StatusPublishReady, func(it *queue.Item) {
			it.PublishAttempts = attempts
			it.ScheduledAt = nil
			it.ErrorMessage = fmt.Sprintf("publish attempt %d: %v", attempts, cause)
		}); err != nil {
			return fmt.Errorf("requeue for retry: %w", err)
		}
		return nil
	}

	message := fmt.Sprintf("publish failed after %d attempts: %v", attempts, cause)
	if !transient {
		message = fmt.Sprintf("publish failed: %v", cause)
	}
	if _, err := s.store.Fail(ctx, item.ID, message); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}

	logger.Error("publish failed permanently",
		logging.String(logging.FieldEventType, "publish_failed"),
		logging.Int(logging.FieldAttempt, attempts),
		logging.Error(cause),
	)
	s.noteError(message)
	if err := s.notifier.NotifyPublishFailed(ctx, item.Title, attempts); err != nil {
		logger.Warn("failure notification", logging.Error(err))
	}
	return nil
}

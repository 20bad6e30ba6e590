package daemon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shortpipe/internal/logging"
	"shortpipe/internal/queue"
)

// AddVideo enqueues a manually-discovered video for the pipeline. When
// the video names a tracked channel, the channel must be enabled and
// under its tracked-video cap.
func (d *Daemon) AddVideo(ctx context.Context, channelID, title, sourceURL string, durationSeconds float64) (*queue.Item, error) {
	title = strings.TrimSpace(title)
	sourceURL = strings.TrimSpace(sourceURL)
	if title == "" {
		return nil, errors.New("video title is required")
	}
	if sourceURL == "" {
		return nil, errors.New("video source url is required")
	}
	if durationSeconds <= 0 {
		return nil, errors.New("video duration must be positive")
	}

	channelID = strings.TrimSpace(channelID)
	if channelID != "" {
		ch, err := d.store.GetChannel(ctx, channelID)
		if err != nil {
			return nil, fmt.Errorf("look up channel: %w", err)
		}
		if ch == nil {
			return nil, fmt.Errorf("channel %q is not tracked", channelID)
		}
		if !ch.Enabled {
			return nil, fmt.Errorf("channel %q is disabled", channelID)
		}
		if ch.MaxTrackedVideos > 0 {
			count, err := d.store.TrackedVideoCount(ctx, channelID)
			if err != nil {
				return nil, fmt.Errorf("count tracked videos: %w", err)
			}
			if count >= ch.MaxTrackedVideos {
				return nil, fmt.Errorf("channel %q is at its tracked-video limit (%d)", channelID, ch.MaxTrackedVideos)
			}
		}
	}

	item, err := d.store.NewVideoItem(ctx, channelID, title, sourceURL, durationSeconds)
	if err != nil {
		return nil, fmt.Errorf("enqueue video: %w", err)
	}
	d.logger.Info("video queued",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldChannel, channelID),
		logging.String("title", title),
	)
	return item, nil
}

// ListQueue returns queue items filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Item, error) {
	return d.store.List(ctx, statuses...)
}

// GetQueueItem fetches a single item, nil when absent.
func (d *Daemon) GetQueueItem(ctx context.Context, id int64) (*queue.Item, error) {
	return d.store.GetByID(ctx, id)
}

// PublishHistory returns the publish attempt log for one item.
func (d *Daemon) PublishHistory(ctx context.Context, id int64) ([]*queue.PublishEvent, error) {
	return d.store.PublishEventsForItem(ctx, id)
}

// QueueStats returns per-status item counts.
func (d *Daemon) QueueStats(ctx context.Context) (map[queue.Status]int, error) {
	return d.store.Stats(ctx)
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	return d.store.Health(ctx)
}

// RetryFailed returns all failed items to the start of the pipeline.
func (d *Daemon) RetryFailed(ctx context.Context) (int, error) {
	return d.store.RetryFailed(ctx)
}

// ResetStuck fails items stranded in processing statuses.
func (d *Daemon) ResetStuck(ctx context.Context) (int, error) {
	stuckAfter := time.Duration(d.cfg.Workflow.StuckProcessingTimeout) * time.Second
	return d.store.ResetStuckProcessing(ctx, stuckAfter)
}

// ClearCompleted removes published and rejected items.
func (d *Daemon) ClearCompleted(ctx context.Context) (int, error) {
	return d.store.ClearCompleted(ctx)
}

// ClearFailed removes failed items.
func (d *Daemon) ClearFailed(ctx context.Context) (int, error) {
	return d.store.ClearFailed(ctx)
}

// ClearQueue removes every queue item.
func (d *Daemon) ClearQueue(ctx context.Context) (int, error) {
	return d.store.ClearAll(ctx)
}

// RemoveItems deletes specific items by id and reports how many existed.
func (d *Daemon) RemoveItems(ctx context.Context, ids []int64) (int, error) {
	removed := 0
	for _, id := range ids {
		ok, err := d.store.Remove(ctx, id)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

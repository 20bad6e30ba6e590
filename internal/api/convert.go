package api

import (
	"time"

	"shortpipe/internal/queue"
)

// FromQueueItem converts a storage item into its transport view.
func FromQueueItem(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}
	return QueueItem{
		ID:              item.ID,
		VideoID:         item.VideoID,
		Channel:         item.ChannelID,
		Title:           item.Title,
		Status:          string(item.Status),
		Score:           item.Score,
		Disposition:     item.Disposition,
		TemplateID:      item.TemplateID,
		CandidateID:     item.CandidateID,
		ArtifactPath:    item.ArtifactPath,
		ReviewReason:    item.ReviewReason,
		DecidedBy:       item.DecidedBy,
		PlatformID:      item.PlatformID,
		PublishReadyAt:  formatTimePtr(item.PublishReadyAt),
		ScheduledAt:     formatTimePtr(item.ScheduledAt),
		StageAttempts:   item.StageAttempts,
		PublishAttempts: item.PublishAttempts,
		ErrorMessage:    item.ErrorMessage,
		CreatedAt:       formatTime(item.CreatedAt),
		UpdatedAt:       formatTime(item.UpdatedAt),
	}
}

// FromQueueItems converts a slice of storage items, skipping nils.
func FromQueueItems(items []*queue.Item) []QueueItem {
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, FromQueueItem(item))
	}
	return out
}

// FromChannel converts a storage channel into its transport view.
// trackedVideos is supplied by the caller since the count lives in a
// different table.
func FromChannel(ch *queue.Channel, trackedVideos int) Channel {
	if ch == nil {
		return Channel{}
	}
	return Channel{
		ID:               ch.ID,
		Name:             ch.Name,
		PriorityTier:     ch.PriorityTier,
		MaxTrackedVideos: ch.MaxTrackedVideos,
		Enabled:          ch.Enabled,
		TrackedVideos:    trackedVideos,
	}
}

// FromPublishEvent converts a publish attempt record.
func FromPublishEvent(event *queue.PublishEvent) PublishEvent {
	if event == nil {
		return PublishEvent{}
	}
	return PublishEvent{
		AttemptedAt: formatTime(event.AttemptedAt),
		Success:     event.Success,
		PlatformID:  event.PlatformID,
		Detail:      event.Detail,
	}
}

// FromHealth converts the aggregate queue summary.
func FromHealth(summary queue.HealthSummary) QueueHealth {
	return QueueHealth{
		Total:         summary.Total,
		Waiting:       summary.Waiting,
		Processing:    summary.Processing,
		PendingReview: summary.PendingReview,
		PublishReady:  summary.PublishReady,
		Published:     summary.Published,
		Rejected:      summary.Rejected,
		Failed:        summary.Failed,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

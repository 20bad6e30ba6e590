package ipc

import "shortpipe/internal/api"

// QueueItem mirrors the shared transport DTO for IPC callers.
type QueueItem = api.QueueItem

// StageHealth describes readiness of a pipeline stage.
type StageHealth = api.StageHealth

// Channel mirrors the shared channel DTO.
type Channel = api.Channel

// PublishEvent mirrors the shared publish attempt DTO.
type PublishEvent = api.PublishEvent

// StopRequest shuts the daemon down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon status information.
type StatusResponse struct {
	Running     bool                `json:"running"`
	PID         int                 `json:"pid"`
	QueueDBPath string              `json:"queue_db_path"`
	LockPath    string              `json:"lock_path"`
	QueueStats  map[string]int      `json:"queue_stats"`
	LastError   string              `json:"last_error,omitempty"`
	LastItem    *QueueItem          `json:"last_item,omitempty"`
	StageHealth []StageHealth       `json:"stage_health"`
	Scheduler   api.SchedulerStatus `json:"scheduler"`
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueDescribeRequest fetches a single queue item by id.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueDescribeResponse contains one queue entry plus its publish history.
type QueueDescribeResponse struct {
	Item    QueueItem      `json:"item"`
	History []PublishEvent `json:"history,omitempty"`
}

// QueueStatsRequest fetches per-status counts.
type QueueStatsRequest struct{}

// QueueStatsResponse reports per-status counts.
type QueueStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// QueueHealthRequest fetches aggregate diagnostics.
type QueueHealthRequest struct{}

// QueueHealthResponse reports queue health information.
type QueueHealthResponse struct {
	Health api.QueueHealth `json:"health"`
}

// QueueRetryRequest retries all failed items.
type QueueRetryRequest struct{}

// QueueRetryResponse reports number of retried items.
type QueueRetryResponse struct {
	Updated int `json:"updated"`
}

// QueueResetRequest fails items stuck in processing statuses.
type QueueResetRequest struct{}

// QueueResetResponse reports number of items reset.
type QueueResetResponse struct {
	Updated int `json:"updated"`
}

// QueueClearRequest removes items of a given scope: "completed",
// "failed", or "all".
type QueueClearRequest struct {
	Scope string `json:"scope"`
}

// QueueClearResponse reports number of removed entries.
type QueueClearResponse struct {
	Removed int `json:"removed"`
}

// QueueRemoveRequest removes specific items by id.
type QueueRemoveRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRemoveResponse reports number of removed entries.
type QueueRemoveResponse struct {
	Removed int `json:"removed"`
}

// ReviewRequest approves or rejects pending-review items.
type ReviewRequest struct {
	IDs       []int64 `json:"ids"`
	DecidedBy string  `json:"decided_by"`
	Reason    string  `json:"reason,omitempty"`
}

// ReviewResponse reports the per-item outcomes of a review decision.
type ReviewResponse struct {
	Results []api.ReviewResult `json:"results"`
}

// SchedulerPauseRequest suspends publish dispatch.
type SchedulerPauseRequest struct{}

// SchedulerResumeRequest re-enables publish dispatch.
type SchedulerResumeRequest struct{}

// SchedulerResponse reports the scheduler state after the change.
type SchedulerResponse struct {
	Paused bool `json:"paused"`
}

// ChannelAddRequest creates or updates a tracked channel.
type ChannelAddRequest struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	PriorityTier     int    `json:"priority_tier"`
	MaxTrackedVideos int    `json:"max_tracked_videos"`
	Enabled          bool   `json:"enabled"`
}

// ChannelAddResponse acknowledges the upsert.
type ChannelAddResponse struct {
	Applied bool `json:"applied"`
}

// ChannelListRequest fetches all tracked channels.
type ChannelListRequest struct{}

// ChannelListResponse contains tracked channels.
type ChannelListResponse struct {
	Channels []Channel `json:"channels"`
}

// ChannelEnableRequest toggles discovery for a channel.
type ChannelEnableRequest struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
}

// ChannelEnableResponse acknowledges the toggle.
type ChannelEnableResponse struct {
	Applied bool `json:"applied"`
}

// ChannelImportRequest imports a YAML channel roster by path.
type ChannelImportRequest struct {
	Path string `json:"path"`
}

// ChannelImportResponse reports how many channels were applied.
type ChannelImportResponse struct {
	Imported int `json:"imported"`
}

// VideoAddRequest enqueues a video for the pipeline.
type VideoAddRequest struct {
	ChannelID       string  `json:"channel_id,omitempty"`
	Title           string  `json:"title"`
	SourceURL       string  `json:"source_url"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// VideoAddResponse returns the created queue item.
type VideoAddResponse struct {
	Item QueueItem `json:"item"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

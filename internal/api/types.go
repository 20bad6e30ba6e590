package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueItem describes a queue entry in a transport-friendly format.
type QueueItem struct {
	ID              int64  `json:"id"`
	VideoID         int64  `json:"videoId"`
	Channel         string `json:"channel,omitempty"`
	Title           string `json:"title"`
	Status          string `json:"status"`
	Score           int    `json:"score"`
	Disposition     string `json:"disposition,omitempty"`
	TemplateID      string `json:"templateId,omitempty"`
	CandidateID     string `json:"candidateId,omitempty"`
	ArtifactPath    string `json:"artifactPath,omitempty"`
	ReviewReason    string `json:"reviewReason,omitempty"`
	DecidedBy       string `json:"decidedBy,omitempty"`
	PlatformID      string `json:"platformId,omitempty"`
	PublishReadyAt  string `json:"publishReadyAt,omitempty"`
	ScheduledAt     string `json:"scheduledAt,omitempty"`
	StageAttempts   int    `json:"stageAttempts,omitempty"`
	PublishAttempts int    `json:"publishAttempts,omitempty"`
	ErrorMessage    string `json:"errorMessage,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
	UpdatedAt       string `json:"updatedAt,omitempty"`
}

// Channel describes a tracked content source.
type Channel struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	PriorityTier     int    `json:"priorityTier"`
	MaxTrackedVideos int    `json:"maxTrackedVideos"`
	Enabled          bool   `json:"enabled"`
	TrackedVideos    int    `json:"trackedVideos"`
}

// PublishEvent is one entry of an item's publish attempt history.
type PublishEvent struct {
	AttemptedAt string `json:"attemptedAt"`
	Success     bool   `json:"success"`
	PlatformID  string `json:"platformId,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// StageHealth mirrors readiness reporting for pipeline stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// WorkflowStatus summarizes pipeline execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastItem    *QueueItem     `json:"lastItem,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// SchedulerStatus summarizes publish dispatch state.
type SchedulerStatus struct {
	Running          bool   `json:"running"`
	Paused           bool   `json:"paused"`
	LastError        string `json:"lastError,omitempty"`
	PublishedLast24h int    `json:"publishedLast24h"`
	PublishReady     int    `json:"publishReady"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool            `json:"running"`
	PID          int             `json:"pid"`
	QueueDBPath  string          `json:"queueDbPath"`
	LockFilePath string          `json:"lockFilePath"`
	Workflow     WorkflowStatus  `json:"workflow"`
	Scheduler    SchedulerStatus `json:"scheduler"`
}

// QueueHealth is the aggregate queue diagnostic payload.
type QueueHealth struct {
	Total         int `json:"total"`
	Waiting       int `json:"waiting"`
	Processing    int `json:"processing"`
	PendingReview int `json:"pendingReview"`
	PublishReady  int `json:"publishReady"`
	Published     int `json:"published"`
	Rejected      int `json:"rejected"`
	Failed        int `json:"failed"`
}

// ReviewResult reports the outcome of one item within a review decision.
type ReviewResult struct {
	ID     int64  `json:"id"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

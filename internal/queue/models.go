package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusDiscovered       Status = "discovered"
	StatusTranscribing     Status = "transcribing"
	StatusTranscribed      Status = "transcribed"
	StatusSegmenting       Status = "segmenting"
	StatusScored           Status = "scored"
	StatusTemplateAssigned Status = "template_assigned"
	StatusPendingReview    Status = "pending_review"
	StatusApproved         Status = "approved"
	StatusRendering        Status = "rendering"
	StatusPublishReady     Status = "publish_ready"
	StatusScheduled        Status = "scheduled"
	StatusPublished        Status = "published"
	StatusRejected         Status = "rejected"
	StatusFailed           Status = "failed"
)

var allStatuses = []Status{
	StatusDiscovered,
	StatusTranscribing,
	StatusTranscribed,
	StatusSegmenting,
	StatusScored,
	StatusTemplateAssigned,
	StatusPendingReview,
	StatusApproved,
	StatusRendering,
	StatusPublishReady,
	StatusScheduled,
	StatusPublished,
	StatusRejected,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// statusRank orders statuses along the pipeline so observed state
// sequences can be checked for monotonicity. Terminal side-branches
// share the rank of their furthest legal entry point.
var statusRank = map[Status]int{
	StatusDiscovered:       0,
	StatusTranscribing:     1,
	StatusTranscribed:      2,
	StatusSegmenting:       3,
	StatusScored:           4,
	StatusTemplateAssigned: 5,
	StatusPendingReview:    6,
	StatusApproved:         7,
	StatusRendering:        8,
	StatusPublishReady:     9,
	StatusScheduled:        10,
	StatusPublished:        11,
	StatusRejected:         11,
	StatusFailed:           11,
}

var processingStatuses = map[Status]struct{}{
	StatusTranscribing: {},
	StatusSegmenting:   {},
	StatusRendering:    {},
	StatusScheduled:    {},
}

var terminalStatuses = map[Status]struct{}{
	StatusPublished: {},
	StatusRejected:  {},
	StatusFailed:    {},
}

// legalTransitions is the authoritative edge set of the state machine.
// scheduled -> publish_ready is the bounded publish retry path; every
// non-terminal status may fail.
var legalTransitions = map[Status][]Status{
	StatusDiscovered:       {StatusTranscribing},
	StatusTranscribing:     {StatusTranscribed},
	StatusTranscribed:      {StatusSegmenting},
	StatusSegmenting:       {StatusScored},
	StatusScored:           {StatusTemplateAssigned},
	StatusTemplateAssigned: {StatusApproved, StatusRejected, StatusPendingReview},
	StatusPendingReview:    {StatusApproved, StatusRejected},
	StatusApproved:         {StatusRendering},
	StatusRendering:        {StatusPublishReady},
	StatusPublishReady:     {StatusScheduled},
	StatusScheduled:        {StatusPublished, StatusPublishReady},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(status Status) bool {
	_, ok := terminalStatuses[status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// CanTransition reports whether from -> to is a legal edge. Any
// non-terminal status may transition to failed.
func CanTransition(from, to Status) bool {
	if IsTerminal(from) {
		return false
	}
	if to == StatusFailed {
		return true
	}
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Rank returns the position of a status in the pipeline partial order.
func Rank(status Status) int {
	return statusRank[status]
}

// Item is the unit of work tracked through the pipeline: it begins life
// as a discovered video and, once segmentation fans out, represents a
// single prospective clip bound to one segment candidate.
type Item struct {
	ID              int64
	VideoID         int64
	ChannelID       string
	Title           string
	Status          Status
	TranscriptID    int64
	CandidateID     string
	TemplateID      string
	ArtifactPath    string
	Score           int
	BreakdownJSON   string
	Disposition     string
	ReviewReason    string
	DecidedBy       string
	PublishReadyAt  *time.Time
	ScheduledAt     *time.Time
	PlatformID      string
	StageAttempts   int
	PublishAttempts int
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsProcessing returns true when the item status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	return IsProcessingStatus(i.Status)
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total         int
	Waiting       int
	Processing    int
	PendingReview int
	PublishReady  int
	Published     int
	Rejected      int
	Failed        int
}

// Channel is a tracked content source.
type Channel struct {
	ID               string
	Name             string
	PriorityTier     int
	MaxTrackedVideos int
	Enabled          bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Video is a discovered long-form recording owned by a channel.
type Video struct {
	ID              int64
	ChannelID       string
	Title           string
	SourceURL       string
	DurationSeconds float64
	DiscoveredAt    time.Time
	UpdatedAt       time.Time
}

// TranscriptSegment is one timed text span of a transcript.
type TranscriptSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcript is an immutable transcription attempt for a video.
// Re-transcribing inserts a new record rather than mutating an old one.
type Transcript struct {
	ID        int64
	VideoID   int64
	Language  string
	Segments  []TranscriptSegment
	CreatedAt time.Time
}

// Candidate is a clip candidate cut from a transcript.
type Candidate struct {
	ID              string
	TranscriptID    int64
	StartSeconds    float64
	EndSeconds      float64
	DurationSeconds float64
	Text            string
	Keywords        []string
	Relevance       float64
	CreatedAt       time.Time
}

// PublishEvent is an append-only record of one publish attempt.
type PublishEvent struct {
	ID          int64
	ItemID      int64
	AttemptedAt time.Time
	Success     bool
	PlatformID  string
	Detail      string
}

package logging

// Standardized attribute keys. Console output promotes FieldComponent to
// a message prefix; everything else renders as key=value pairs.
const (
	FieldComponent = "component"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"

	FieldItemID     = "item_id"
	FieldVideoID    = "video_id"
	FieldChannel    = "channel"
	FieldStage      = "stage"
	FieldStatus     = "status"
	FieldFromStatus = "from_status"
	FieldToStatus   = "to_status"
	FieldCandidate  = "candidate_id"
	FieldTemplate   = "template_id"
	FieldScore      = "score"
	FieldPlatform   = "platform_id"
	FieldAttempt    = "attempt"

	FieldCorrelationID = "correlation_id"
)

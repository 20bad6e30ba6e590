package workflow

import (
	"shortpipe/internal/queue"
	"shortpipe/internal/stage"
)

// pipelineStage binds a stage handler to the status edges the manager
// drives it across. processingStatus is empty for single-write stages:
// the manager then advances startStatus -> done in one compare-and-set
// instead of claiming the item into an intermediate processing status.
// doneFor, when set, resolves the done status from the item after
// Execute; it takes precedence over doneStatus.
type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
	doneFor          func(*queue.Item) (queue.Status, error)
}

// copyPayload carries handler-written payload fields from src onto dst.
// Identity, status, and bookkeeping columns stay untouched; the
// surrounding compare-and-set owns those.
func copyPayload(dst, src *queue.Item) {
	dst.TranscriptID = src.TranscriptID
	dst.CandidateID = src.CandidateID
	dst.TemplateID = src.TemplateID
	dst.ArtifactPath = src.ArtifactPath
	dst.Score = src.Score
	dst.BreakdownJSON = src.BreakdownJSON
	dst.Disposition = src.Disposition
	dst.ReviewReason = src.ReviewReason
	dst.DecidedBy = src.DecidedBy
	dst.PublishReadyAt = src.PublishReadyAt
	dst.PlatformID = src.PlatformID
}

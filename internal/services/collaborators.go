package services

import (
	"context"

	"shortpipe/internal/queue"
)

// TranscribeRequest asks the transcriber to produce timed text for a video.
type TranscribeRequest struct {
	VideoID   int64
	SourceURL string
	Language  string
}

// TranscribeResult is the transcriber's output.
type TranscribeResult struct {
	Language string
	Segments []queue.TranscriptSegment
}

// Transcriber produces transcripts for discovered videos.
type Transcriber interface {
	Transcribe(ctx context.Context, req TranscribeRequest) (TranscribeResult, error)
}

// Signals are the measurable, deterministic probe values the scorer
// consumes. The scorer itself never decodes media.
type Signals struct {
	LoudnessLUFS    float64
	NoiseFloorDB    float64
	Width           int
	Height          int
	MotionVariance  float64
	CaptionCoverage float64
}

// AnalyzeRequest asks the compositor to probe a candidate clip.
type AnalyzeRequest struct {
	VideoID   int64
	SourceURL string
	Candidate queue.Candidate
}

// RenderRequest asks the compositor to produce the final vertical composite.
// BaseName is the sanitized file name stem the artifact should use.
type RenderRequest struct {
	ItemID     int64
	SourceURL  string
	Candidate  queue.Candidate
	TemplateID string
	OutputDir  string
	BaseName   string
}

// RenderResult reports where the rendered artifact landed.
type RenderResult struct {
	ArtifactPath string
}

// Compositor probes candidate clips and renders approved composites.
type Compositor interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (Signals, error)
	Render(ctx context.Context, req RenderRequest) (RenderResult, error)
}

// PublishRequest hands a rendered artifact to the publishing platform.
type PublishRequest struct {
	ItemID       int64
	ArtifactPath string
	Title        string
	TemplateID   string
}

// PublishResult reports the platform-side identity of a published clip.
type PublishResult struct {
	PlatformID string
	Detail     string
}

// Publisher dispatches rendered composites to the external platform.
type Publisher interface {
	Publish(ctx context.Context, req PublishRequest) (PublishResult, error)
}

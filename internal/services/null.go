package services

import "context"

// Null collaborators stand in when no platform integration is linked.
// Every call fails with a configuration error, so items reach failed
// with a message naming the missing integration instead of crashing the
// stage. Real integrations implement the same interfaces and replace
// these at daemon wiring time.

// NullTranscriber is a Transcriber with no backing service.
type NullTranscriber struct{}

func (NullTranscriber) Transcribe(ctx context.Context, req TranscribeRequest) (TranscribeResult, error) {
	return TranscribeResult{}, Wrap(ErrConfiguration, "transcribing", "transcribe",
		"no transcription integration linked", nil)
}

// NullCompositor is a Compositor with no backing service.
type NullCompositor struct{}

func (NullCompositor) Analyze(ctx context.Context, req AnalyzeRequest) (Signals, error) {
	return Signals{}, Wrap(ErrConfiguration, "segmenting", "analyze candidate",
		"no compositor integration linked", nil)
}

func (NullCompositor) Render(ctx context.Context, req RenderRequest) (RenderResult, error) {
	return RenderResult{}, Wrap(ErrConfiguration, "rendering", "render composite",
		"no compositor integration linked", nil)
}

// NullPublisher is a Publisher with no backing platform.
type NullPublisher struct{}

func (NullPublisher) Publish(ctx context.Context, req PublishRequest) (PublishResult, error) {
	return PublishResult{}, Wrap(ErrConfiguration, "publish", "upload",
		"no publishing integration linked", nil)
}

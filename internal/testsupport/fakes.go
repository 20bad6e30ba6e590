package testsupport

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"shortpipe/internal/queue"
	"shortpipe/internal/services"
)

// FakeTranscriber returns a canned transcript for every request.
type FakeTranscriber struct {
	Segments []queue.TranscriptSegment
	Language string
	Err      error

	mu    sync.Mutex
	calls int
}

func (f *FakeTranscriber) Transcribe(ctx context.Context, req services.TranscribeRequest) (services.TranscribeResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.Err != nil {
		return services.TranscribeResult{}, f.Err
	}
	language := f.Language
	if language == "" {
		language = "en"
	}
	return services.TranscribeResult{Language: language, Segments: f.Segments}, nil
}

// Calls reports how many transcription requests were made.
func (f *FakeTranscriber) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FakeCompositor serves fixed probe signals and renders into the
// requested output directory without touching disk. AnalyzeFailFirst
// makes the first N probe calls fail transiently before succeeding.
type FakeCompositor struct {
	Signals          services.Signals
	AnalyzeErr       error
	AnalyzeFailFirst int
	RenderErr        error

	mu           sync.Mutex
	analyzeCalls int
	rendered     []int64
}

func (f *FakeCompositor) Analyze(ctx context.Context, req services.AnalyzeRequest) (services.Signals, error) {
	f.mu.Lock()
	f.analyzeCalls++
	attempt := f.analyzeCalls
	f.mu.Unlock()
	if f.AnalyzeErr != nil {
		return services.Signals{}, f.AnalyzeErr
	}
	if attempt <= f.AnalyzeFailFirst {
		return services.Signals{}, services.Wrap(services.ErrTransient, "compositor", "analyze", "synthetic failure", nil)
	}
	return f.Signals, nil
}

// AnalyzeCalls reports how many probe requests were made.
func (f *FakeCompositor) AnalyzeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.analyzeCalls
}

func (f *FakeCompositor) Render(ctx context.Context, req services.RenderRequest) (services.RenderResult, error) {
	if f.RenderErr != nil {
		return services.RenderResult{}, f.RenderErr
	}
	f.mu.Lock()
	f.rendered = append(f.rendered, req.ItemID)
	f.mu.Unlock()
	name := req.BaseName
	if name == "" {
		name = fmt.Sprintf("clip-%d-%s", req.ItemID, req.Candidate.ID)
	}
	return services.RenderResult{ArtifactPath: filepath.Join(req.OutputDir, name+".mp4")}, nil
}

// Rendered returns the item ids render was called for.
func (f *FakeCompositor) Rendered() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.rendered...)
}

// GoodSignals returns probe signals that score into auto-approve
// territory under the default scoring configuration.
func GoodSignals() services.Signals {
	return services.Signals{
		LoudnessLUFS:    -16,
		NoiseFloorDB:    -60,
		Width:           1080,
		Height:          1920,
		MotionVariance:  0.01,
		CaptionCoverage: 1.0,
	}
}

// FakePublisher records publish requests and can fail a fixed number of
// times before succeeding.
type FakePublisher struct {
	PlatformID string
	Err        error
	FailFirst  int

	mu    sync.Mutex
	calls []services.PublishRequest
}

func (f *FakePublisher) Publish(ctx context.Context, req services.PublishRequest) (services.PublishResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	attempt := len(f.calls)
	f.mu.Unlock()

	if f.Err != nil {
		return services.PublishResult{}, f.Err
	}
	if attempt <= f.FailFirst {
		return services.PublishResult{}, services.Wrap(services.ErrTransient, "publish", "upload", "synthetic failure", nil)
	}
	platform := f.PlatformID
	if platform == "" {
		platform = "shorts"
	}
	return services.PublishResult{PlatformID: platform, Detail: fmt.Sprintf("attempt %d", attempt)}, nil
}

// Calls returns the recorded publish requests.
func (f *FakePublisher) Calls() []services.PublishRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]services.PublishRequest(nil), f.calls...)
}

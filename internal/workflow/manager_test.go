package workflow

import (
	"context"
	"testing"

	"shortpipe/internal/config"
	"shortpipe/internal/logging"
	"shortpipe/internal/queue"
	"shortpipe/internal/rendering"
	"shortpipe/internal/scoring"
	"shortpipe/internal/segmenting"
	"shortpipe/internal/services"
	"shortpipe/internal/templating"
	"shortpipe/internal/testsupport"
	"shortpipe/internal/transcribing"
)

// transcriptFixture yields exactly one in-bounds candidate under the
// default 20-60s duration bounds.
func transcriptFixture() []queue.TranscriptSegment {
	return []queue.TranscriptSegment{
		{Text: "welcome back everyone to the channel", Start: 0, End: 10},
		{Text: "here comes the decisive highlight moment of the whole match", Start: 100, End: 145},
		{Text: "a meandering outro that runs far too long to clip", Start: 300, End: 380},
	}
}

func newTestManager(t *testing.T, cfg *config.Config, store *queue.Store, transcriber services.Transcriber, compositor services.Compositor) *Manager {
	t.Helper()

	logger := logging.NewNop()
	manager := NewManager(cfg, store, nil, logger)
	err := manager.ConfigureStages(StageSet{
		Transcriber:      transcribing.NewTranscriber(cfg, store, logger, transcriber),
		Segmenter:        segmenting.NewSegmenter(cfg, store, logger, compositor),
		TemplateSelector: templating.NewSelector(cfg, store, logger),
		Dispositioner:    scoring.NewDispositioner(cfg, logger, nil),
		Renderer:         rendering.NewRenderer(cfg, store, logger, compositor),
	})
	if err != nil {
		t.Fatalf("ConfigureStages: %v", err)
	}
	return manager
}

// drain runs the poll loop synchronously until no pollable item remains.
func drain(t *testing.T, m *Manager) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		item, err := m.store.NextForStatuses(ctx, m.pollStatuses...)
		if err != nil {
			t.Fatalf("NextForStatuses: %v", err)
		}
		if item == nil {
			return
		}
		if err := m.processItem(ctx, item); err != nil {
			return
		}
	}
	t.Fatal("pipeline did not settle after 50 iterations")
}

func TestPipelineAutoApproveToPublishReady(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	transcriber := &testsupport.FakeTranscriber{Segments: transcriptFixture()}
	compositor := &testsupport.FakeCompositor{Signals: testsupport.GoodSignals()}
	manager := newTestManager(t, cfg, store, transcriber, compositor)

	item := testsupport.NewVideoItem(t, store, "Championship Highlight")
	drain(t, manager)

	final, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.Status != queue.StatusPublishReady {
		t.Fatalf("status = %s (%s), want publish_ready", final.Status, final.ErrorMessage)
	}
	if final.Disposition != scoring.DispositionAutoApprove {
		t.Fatalf("disposition = %s, want auto-approve", final.Disposition)
	}
	if final.DecidedBy != scoring.DecidedByAuto {
		t.Fatalf("decided by = %q, want auto", final.DecidedBy)
	}
	if final.CandidateID == "" || final.TemplateID == "" || final.ArtifactPath == "" {
		t.Fatalf("pipeline payload incomplete: %+v", final)
	}
	if final.PublishReadyAt == nil {
		t.Fatal("publish_ready_at not stamped")
	}
	if rendered := compositor.Rendered(); len(rendered) != 1 || rendered[0] != item.ID {
		t.Fatalf("rendered items = %v", rendered)
	}
}

func TestPipelineParksMidScoreForReview(t *testing.T) {
	// Zero caption coverage drops the subtitle metric entirely, landing
	// the total between the default reject and approve thresholds.
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	signals := testsupport.GoodSignals()
	signals.CaptionCoverage = 0
	transcriber := &testsupport.FakeTranscriber{Segments: transcriptFixture()}
	compositor := &testsupport.FakeCompositor{Signals: signals}
	manager := newTestManager(t, cfg, store, transcriber, compositor)

	item := testsupport.NewVideoItem(t, store, "Middling Clip")
	drain(t, manager)

	final, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.Status != queue.StatusPendingReview {
		t.Fatalf("status = %s (%s), want pending_review", final.Status, final.ErrorMessage)
	}
	if final.Disposition != scoring.DispositionManualReview {
		t.Fatalf("disposition = %s, want manual-review", final.Disposition)
	}
	if final.ReviewReason == "" {
		t.Fatal("review reason not recorded")
	}
	if len(compositor.Rendered()) != 0 {
		t.Fatal("parked item must not render")
	}
}

func TestTransientFailureRetriesThenFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.StageRetryLimit = 2
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	transcriber := &testsupport.FakeTranscriber{
		Err: services.Wrap(services.ErrTransient, "transcribing", "transcribe", "upstream flapping", nil),
	}
	manager := newTestManager(t, cfg, store, transcriber, &testsupport.FakeCompositor{})

	item := testsupport.NewVideoItem(t, store, "Flaky Source")

	// Two transient failures stay retryable.
	for attempt := 1; attempt <= 2; attempt++ {
		next, err := store.NextForStatuses(ctx, manager.pollStatuses...)
		if err != nil || next == nil {
			t.Fatalf("poll attempt %d: item=%v err=%v", attempt, next, err)
		}
		if err := manager.processItem(ctx, next); err == nil {
			t.Fatalf("attempt %d: expected stage error", attempt)
		}
		current, err := store.GetByID(ctx, item.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if current.Status != queue.StatusDiscovered {
			t.Fatalf("attempt %d: status = %s, want discovered (released)", attempt, current.Status)
		}
		if current.StageAttempts != attempt {
			t.Fatalf("attempt %d: stage_attempts = %d", attempt, current.StageAttempts)
		}
	}

	// The third exhausts the budget.
	next, err := store.NextForStatuses(ctx, manager.pollStatuses...)
	if err != nil || next == nil {
		t.Fatalf("final poll: item=%v err=%v", next, err)
	}
	if err := manager.processItem(ctx, next); err == nil {
		t.Fatal("expected stage error on exhaustion")
	}
	final, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want failed", final.Status)
	}
	if transcriber.Calls() != 3 {
		t.Fatalf("transcriber calls = %d, want 3", transcriber.Calls())
	}
}

func TestPermanentFailureFailsImmediately(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	transcriber := &testsupport.FakeTranscriber{
		Err: services.Wrap(services.ErrPermanent, "transcribing", "transcribe", "source gone", nil),
	}
	manager := newTestManager(t, cfg, store, transcriber, &testsupport.FakeCompositor{})

	item := testsupport.NewVideoItem(t, store, "Deleted Video")
	next, err := store.NextForStatuses(ctx, manager.pollStatuses...)
	if err != nil || next == nil {
		t.Fatalf("poll: item=%v err=%v", next, err)
	}
	if err := manager.processItem(ctx, next); err == nil {
		t.Fatal("expected stage error")
	}

	final, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want failed on first attempt", final.Status)
	}
	if transcriber.Calls() != 1 {
		t.Fatalf("transcriber calls = %d, want 1", transcriber.Calls())
	}
}

func TestProcessItemSkipsClaimedItem(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	manager := newTestManager(t, cfg, store,
		&testsupport.FakeTranscriber{Segments: transcriptFixture()},
		&testsupport.FakeCompositor{Signals: testsupport.GoodSignals()})

	item := testsupport.NewVideoItem(t, store, "Contested")
	stale := *item

	// Another writer claims the item first.
	if _, err := store.Transition(ctx, item.ID, queue.StatusDiscovered, queue.StatusTranscribing, nil); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if err := manager.processItem(ctx, &stale); err != nil {
		t.Fatalf("losing a claim must not error, got %v", err)
	}
	current, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if current.Status != queue.StatusTranscribing {
		t.Fatalf("status = %s, want transcribing (untouched)", current.Status)
	}
}

func TestStartRequiresStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	manager := NewManager(cfg, store, nil, logging.NewNop())
	if err := manager.Start(context.Background()); err == nil {
		manager.Stop()
		t.Fatal("Start without stages must error")
	}
}

func TestStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	manager := newTestManager(t, cfg, store,
		&testsupport.FakeTranscriber{Segments: transcriptFixture()},
		&testsupport.FakeCompositor{Signals: testsupport.GoodSignals()})

	ctx := context.Background()
	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !manager.Running() {
		t.Fatal("manager not running after Start")
	}
	if err := manager.Start(ctx); err == nil {
		t.Fatal("second Start must error")
	}
	manager.Stop()
	if manager.Running() {
		t.Fatal("manager still running after Stop")
	}
}

func TestStatusReportsStageHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	manager := newTestManager(t, cfg, store,
		&testsupport.FakeTranscriber{Segments: transcriptFixture()},
		&testsupport.FakeCompositor{Signals: testsupport.GoodSignals()})
	testsupport.NewVideoItem(t, store, "Pending")

	summary := manager.Status(ctx)
	if summary.Running {
		t.Fatal("manager reported running before Start")
	}
	if len(summary.StageHealth) != 5 {
		t.Fatalf("stage health entries = %d, want 5", len(summary.StageHealth))
	}
	if summary.QueueStats[queue.StatusDiscovered] != 1 {
		t.Fatalf("queue stats = %+v", summary.QueueStats)
	}
	if !manager.Healthy(ctx) {
		t.Fatal("all-fake pipeline must be healthy")
	}
}

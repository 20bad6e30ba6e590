package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shortpipe/internal/config"
	"shortpipe/internal/logging"
	"shortpipe/internal/queue"
	"shortpipe/internal/services"
	"shortpipe/internal/testsupport"
)

// fakeClock serves a settable instant so window and rate-limit decisions
// are deterministic.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// recordingNotifier captures notification calls without any transport.
type recordingNotifier struct {
	mu        sync.Mutex
	published []string
	failed    []string
}

func (n *recordingNotifier) NotifyPublished(ctx context.Context, title, platformID string) error {
	n.mu.Lock()
	n.published = append(n.published, title)
	n.mu.Unlock()
	return nil
}

func (n *recordingNotifier) NotifyPublishFailed(ctx context.Context, title string, attempts int) error {
	n.mu.Lock()
	n.failed = append(n.failed, title)
	n.mu.Unlock()
	return nil
}

func (n *recordingNotifier) NotifyPendingReview(ctx context.Context, title string, score int) error {
	return nil
}

func (n *recordingNotifier) NotifyError(ctx context.Context, err error, contextLabel string) error {
	return nil
}

func (n *recordingNotifier) TestNotification(ctx context.Context) error { return nil }

// insideWindow falls in the default 09:00-11:00 publish window.
func insideWindow() time.Time {
	return time.Date(2026, 8, 28, 10, 0, 0, 0, time.Local)
}

// outsideWindow falls outside both default windows.
func outsideWindow() time.Time {
	return time.Date(2026, 8, 28, 3, 0, 0, 0, time.Local)
}

func newTestScheduler(t *testing.T, cfg *config.Config, store *queue.Store, publisher services.Publisher, clock Clock) (*Scheduler, *recordingNotifier) {
	t.Helper()

	notifier := &recordingNotifier{}
	s, err := New(cfg, store, publisher, notifier, logging.NewNop(), clock)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, notifier
}

func readyItem(t *testing.T, store *queue.Store, title string) *queue.Item {
	t.Helper()
	item := testsupport.NewVideoItem(t, store, title)
	return testsupport.AdvanceTo(t, store, item, queue.StatusPublishReady)
}

func TestNewRejectsMalformedWindows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	cfg.Publisher.Windows = []string{"9am-5pm"}

	_, err := New(cfg, store, &testsupport.FakePublisher{}, &recordingNotifier{}, logging.NewNop(), nil)
	if err == nil {
		t.Fatal("expected configuration error for malformed window")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("error kind = %v, want configuration", err)
	}
}

func TestDispatchOutsideWindowDoesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	publisher := &testsupport.FakePublisher{}
	clock := &fakeClock{now: outsideWindow()}
	s, _ := newTestScheduler(t, cfg, store, publisher, clock)

	item := readyItem(t, store, "Early Bird")
	if err := s.dispatch(ctx); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if calls := publisher.Calls(); len(calls) != 0 {
		t.Fatalf("publisher called %d times outside window", len(calls))
	}
	current, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if current.Status != queue.StatusPublishReady {
		t.Fatalf("status = %s, want publish_ready (untouched)", current.Status)
	}
}

func TestDispatchPublishesWithinWindow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	publisher := &testsupport.FakePublisher{PlatformID: "shorts"}
	clock := &fakeClock{now: insideWindow()}
	s, notifier := newTestScheduler(t, cfg, store, publisher, clock)

	item := readyItem(t, store, "Prime Time")
	if err := s.dispatch(ctx); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	final, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.Status != queue.StatusPublished {
		t.Fatalf("status = %s (%s), want published", final.Status, final.ErrorMessage)
	}
	if final.PlatformID != "shorts" {
		t.Fatalf("platform = %q, want shorts", final.PlatformID)
	}

	calls := publisher.Calls()
	if len(calls) != 1 || calls[0].ItemID != item.ID {
		t.Fatalf("publish calls = %+v", calls)
	}
	events, err := store.PublishEventsForItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("PublishEventsForItem: %v", err)
	}
	if len(events) != 1 || !events[0].Success {
		t.Fatalf("publish events = %+v", events)
	}
	if len(notifier.published) != 1 || notifier.published[0] != "Prime Time" {
		t.Fatalf("published notifications = %v", notifier.published)
	}
}

func TestDispatchHonorsDailyCeiling(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPublishPolicy(1, 0, 3))
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	clock := &fakeClock{now: insideWindow()}
	publisher := &testsupport.FakePublisher{}
	s, _ := newTestScheduler(t, cfg, store, publisher, clock)

	spent := readyItem(t, store, "Already Out")
	spent = testsupport.AdvanceTo(t, store, spent, queue.StatusPublished)
	if err := store.RecordPublishEvent(ctx, &queue.PublishEvent{
		ItemID:      spent.ID,
		AttemptedAt: clock.Now().UTC().Add(-2 * time.Hour),
		Success:     true,
		PlatformID:  "shorts",
	}); err != nil {
		t.Fatalf("RecordPublishEvent: %v", err)
	}

	waiting := readyItem(t, store, "Over Budget")
	if err := s.dispatch(ctx); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if calls := publisher.Calls(); len(calls) != 0 {
		t.Fatalf("publisher called %d times past the daily ceiling", len(calls))
	}

	// The spent slot ages out of the rolling window a day later.
	clock.Set(clock.Now().Add(24 * time.Hour))
	if err := s.dispatch(ctx); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	final, err := store.GetByID(ctx, waiting.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.Status != queue.StatusPublished {
		t.Fatalf("status = %s, want published once the window rolled over", final.Status)
	}
}

func TestDispatchHonorsMinimumInterval(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPublishPolicy(5, 90, 3))
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	clock := &fakeClock{now: insideWindow()}
	publisher := &testsupport.FakePublisher{}
	s, _ := newTestScheduler(t, cfg, store, publisher, clock)

	// The last success sits just inside the 90-minute spacing at first
	// dispatch; advancing two minutes clears it while the clock stays
	// inside the 09:00-11:00 window.
	recent := readyItem(t, store, "Recent Success")
	recent = testsupport.AdvanceTo(t, store, recent, queue.StatusPublished)
	if err := store.RecordPublishEvent(ctx, &queue.PublishEvent{
		ItemID:      recent.ID,
		AttemptedAt: clock.Now().UTC().Add(-89 * time.Minute),
		Success:     true,
		PlatformID:  "shorts",
	}); err != nil {
		t.Fatalf("RecordPublishEvent: %v", err)
	}

	readyItem(t, store, "Too Soon")
	if err := s.dispatch(ctx); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if calls := publisher.Calls(); len(calls) != 0 {
		t.Fatalf("published %d times inside the minimum interval", len(calls))
	}

	clock.Set(clock.Now().Add(2 * time.Minute))
	if err := s.dispatch(ctx); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if calls := publisher.Calls(); len(calls) != 1 {
		t.Fatalf("publish calls after interval elapsed = %d, want 1", len(calls))
	}
}

func TestDispatchPicksOldestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPublishPolicy(5, 0, 3))
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	clock := &fakeClock{now: insideWindow()}
	publisher := &testsupport.FakePublisher{}
	s, _ := newTestScheduler(t, cfg, store, publisher, clock)

	first := readyItem(t, store, "First In")
	readyItem(t, store, "Second In")

	if err := s.dispatch(ctx); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	calls := publisher.Calls()
	if len(calls) != 1 || calls[0].ItemID != first.ID {
		t.Fatalf("publish calls = %+v, want oldest item %d", calls, first.ID)
	}
}

func TestTransientFailureRequeuesForRetry(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPublishPolicy(5, 0, 3))
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	clock := &fakeClock{now: insideWindow()}
	publisher := &testsupport.FakePublisher{FailFirst: 1}
	s, _ := newTestScheduler(t, cfg, store, publisher, clock)

	item := readyItem(t, store, "Flaky Upload")
	if err := s.dispatch(ctx); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	mid, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if mid.Status != queue.StatusPublishReady {
		t.Fatalf("status = %s, want publish_ready after transient failure", mid.Status)
	}
	if mid.PublishAttempts != 1 {
		t.Fatalf("publish attempts = %d, want 1", mid.PublishAttempts)
	}
	if mid.ErrorMessage == "" {
		t.Fatal("failure message not recorded")
	}

	// The next pass succeeds.
	if err := s.dispatch(ctx); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	final, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.Status != queue.StatusPublished {
		t.Fatalf("status = %s, want published on retry", final.Status)
	}
	events, err := store.PublishEventsForItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("PublishEventsForItem: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("publish events = %d, want 2 (failure then success)", len(events))
	}
}

func TestRetryBudgetExhaustionFailsItem(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPublishPolicy(5, 0, 1))
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	clock := &fakeClock{now: insideWindow()}
	publisher := &testsupport.FakePublisher{
		Err: services.Wrap(services.ErrTransient, "publish", "upload", "platform down", nil),
	}
	s, notifier := newTestScheduler(t, cfg, store, publisher, clock)

	item := readyItem(t, store, "Doomed Upload")

	// First attempt stays within the budget.
	if err := s.dispatch(ctx); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	mid, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if mid.Status != queue.StatusPublishReady || mid.PublishAttempts != 1 {
		t.Fatalf("after first attempt: status=%s attempts=%d", mid.Status, mid.PublishAttempts)
	}

	// The second exhausts it.
	if err := s.dispatch(ctx); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	final, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want failed after budget exhaustion", final.Status)
	}
	if len(notifier.failed) != 1 {
		t.Fatalf("failure notifications = %v, want one", notifier.failed)
	}
	if len(notifier.published) != 0 {
		t.Fatalf("unexpected publish notifications: %v", notifier.published)
	}
}

func TestPermanentFailureFailsImmediately(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPublishPolicy(5, 0, 3))
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	clock := &fakeClock{now: insideWindow()}
	publisher := &testsupport.FakePublisher{
		Err: services.Wrap(services.ErrPermanent, "publish", "upload", "account suspended", nil),
	}
	s, _ := newTestScheduler(t, cfg, store, publisher, clock)

	item := readyItem(t, store, "Rejected Upload")
	if err := s.dispatch(ctx); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	final, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want failed on first permanent error", final.Status)
	}
	if len(publisher.Calls()) != 1 {
		t.Fatalf("publish calls = %d, want 1", len(publisher.Calls()))
	}
}

func TestPauseResume(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	s, _ := newTestScheduler(t, cfg, store, &testsupport.FakePublisher{}, &fakeClock{now: insideWindow()})
	if s.Paused() {
		t.Fatal("scheduler starts paused")
	}
	s.Pause()
	if !s.Paused() {
		t.Fatal("Pause did not take effect")
	}
	s.Resume()
	if s.Paused() {
		t.Fatal("Resume did not take effect")
	}
}

func TestStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	s, _ := newTestScheduler(t, cfg, store, &testsupport.FakePublisher{}, &fakeClock{now: outsideWindow()})
	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.Running() {
		t.Fatal("scheduler not running after Start")
	}
	if err := s.Start(ctx); err == nil {
		t.Fatal("second Start must error")
	}
	s.Stop()
	if s.Running() {
		t.Fatal("scheduler still running after Stop")
	}
}

func TestSnapshotCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	clock := &fakeClock{now: insideWindow()}
	s, _ := newTestScheduler(t, cfg, store, &testsupport.FakePublisher{}, clock)

	published := readyItem(t, store, "Counted")
	published = testsupport.AdvanceTo(t, store, published, queue.StatusPublished)
	if err := store.RecordPublishEvent(ctx, &queue.PublishEvent{
		ItemID:      published.ID,
		AttemptedAt: clock.Now().UTC().Add(-time.Hour),
		Success:     true,
		PlatformID:  "shorts",
	}); err != nil {
		t.Fatalf("RecordPublishEvent: %v", err)
	}
	readyItem(t, store, "Waiting A")
	readyItem(t, store, "Waiting B")

	status := s.Snapshot(ctx)
	if status.Running {
		t.Fatal("snapshot reports running before Start")
	}
	if status.PublishedLast24h != 1 {
		t.Fatalf("published last 24h = %d, want 1", status.PublishedLast24h)
	}
	if status.PublishReady != 2 {
		t.Fatalf("publish ready = %d, want 2", status.PublishReady)
	}
}

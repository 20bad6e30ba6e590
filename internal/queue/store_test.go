package queue_test

import (
	"context"
	"testing"
	"time"

	"shortpipe/internal/queue"
	"shortpipe/internal/testsupport"
)

func TestNewVideoItemStartsDiscovered(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewVideoItem(t, store, "launch recap")
	if item.Status != queue.StatusDiscovered {
		t.Fatalf("new item status = %s, want discovered", item.Status)
	}
	if item.VideoID == 0 {
		t.Fatal("new item has no video bound")
	}

	video, err := store.GetVideo(ctx, item.VideoID)
	if err != nil {
		t.Fatalf("GetVideo: %v", err)
	}
	if video == nil || video.Title != "launch recap" {
		t.Fatalf("video not persisted: %+v", video)
	}
}

func TestTransitionConflictLosesCleanly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewVideoItem(t, store, "conflict")
	item = testsupport.AdvanceTo(t, store, item, queue.StatusPendingReview)

	if _, err := store.Transition(ctx, item.ID, queue.StatusPendingReview, queue.StatusApproved, nil); err != nil {
		t.Fatalf("first approve: %v", err)
	}

	_, err := store.Transition(ctx, item.ID, queue.StatusPendingReview, queue.StatusRejected, nil)
	if !queue.IsConflict(err) {
		t.Fatalf("second decision error = %v, want conflict", err)
	}

	final, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.Status != queue.StatusApproved {
		t.Fatalf("final status = %s, want approved (first writer wins)", final.Status)
	}
}

func TestTransitionRejectsIllegalEdge(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewVideoItem(t, store, "illegal")
	_, err := store.Transition(context.Background(), item.ID, queue.StatusDiscovered, queue.StatusPublished, nil)
	if err == nil {
		t.Fatal("expected illegal transition to fail")
	}
	if queue.IsConflict(err) {
		t.Fatal("illegal edge must not report as conflict")
	}
}

func TestTransitionMutatePersistsPayload(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewVideoItem(t, store, "payload")
	item = testsupport.AdvanceTo(t, store, item, queue.StatusTemplateAssigned)

	updated, err := store.Transition(ctx, item.ID, queue.StatusTemplateAssigned, queue.StatusApproved, func(it *queue.Item) {
		it.Disposition = "auto_approve"
		it.Score = 87
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Score != 87 {
		t.Fatalf("returned score = %d, want 87", updated.Score)
	}

	reloaded, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Disposition != "auto_approve" || reloaded.Score != 87 {
		t.Fatalf("payload not persisted: %+v", reloaded)
	}
}

func TestFailFromAnyNonTerminal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewVideoItem(t, store, "doomed")
	failed, err := store.Fail(ctx, item.ID, "probe exploded")
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if failed.Status != queue.StatusFailed || failed.ErrorMessage != "probe exploded" {
		t.Fatalf("failed item = %+v", failed)
	}

	if _, err := store.Fail(ctx, item.ID, "again"); err == nil {
		t.Fatal("failing a terminal item must error")
	}
}

func TestReleaseClaimRollsBackToStart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewVideoItem(t, store, "retryable")
	item = testsupport.AdvanceTo(t, store, item, queue.StatusTranscribing)

	if err := store.ReleaseClaim(ctx, item.ID, queue.StatusTranscribing, queue.StatusDiscovered, 1, "socket reset"); err != nil {
		t.Fatalf("ReleaseClaim: %v", err)
	}

	reloaded, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Status != queue.StatusDiscovered {
		t.Fatalf("status = %s, want discovered", reloaded.Status)
	}
	if reloaded.StageAttempts != 1 || reloaded.ErrorMessage != "socket reset" {
		t.Fatalf("attempt bookkeeping not persisted: %+v", reloaded)
	}

	// A second release must miss the compare-and-set.
	err = store.ReleaseClaim(ctx, item.ID, queue.StatusTranscribing, queue.StatusDiscovered, 2, "late")
	if !queue.IsConflict(err) {
		t.Fatalf("stale release error = %v, want conflict", err)
	}
}

func TestReleaseClaimRequiresProcessingStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewVideoItem(t, store, "not-processing")
	err := store.ReleaseClaim(context.Background(), item.ID, queue.StatusDiscovered, queue.StatusDiscovered, 1, "")
	if err == nil {
		t.Fatal("release from non-processing status must error")
	}
}

func TestBulkTransitionIsolatesFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	ready := testsupport.NewVideoItem(t, store, "ready")
	ready = testsupport.AdvanceTo(t, store, ready, queue.StatusPendingReview)
	stale := testsupport.NewVideoItem(t, store, "stale")

	results := store.BulkTransition(ctx, []int64{ready.ID, stale.ID, 99999}, queue.StatusPendingReview, queue.StatusApproved, nil)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Err != nil {
		t.Fatalf("ready item errored: %v", results[0].Err)
	}
	if results[1].Err == nil || results[2].Err == nil {
		t.Fatal("stale and missing items must report errors")
	}
}

func TestNextForStatusesIsFIFO(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewVideoItem(t, store, "first")
	testsupport.NewVideoItem(t, store, "second")

	next, err := store.NextForStatuses(ctx, queue.StatusDiscovered)
	if err != nil {
		t.Fatalf("NextForStatuses: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("next item = %+v, want id %d", next, first.ID)
	}

	none, err := store.NextForStatuses(ctx, queue.StatusRendering)
	if err != nil {
		t.Fatalf("NextForStatuses empty: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no rendering items, got %+v", none)
	}
}

func TestRetryFailedResetsCounters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewVideoItem(t, store, "fixable")
	if _, err := store.Fail(ctx, item.ID, "boom"); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	updated, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if updated != 1 {
		t.Fatalf("RetryFailed updated %d, want 1", updated)
	}

	reloaded, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Status != queue.StatusDiscovered {
		t.Fatalf("status = %s, want discovered", reloaded.Status)
	}
	if reloaded.StageAttempts != 0 || reloaded.PublishAttempts != 0 || reloaded.ErrorMessage != "" {
		t.Fatalf("counters not reset: %+v", reloaded)
	}
}

func TestHealthBuckets(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewVideoItem(t, store, "waiting")
	processing := testsupport.NewVideoItem(t, store, "processing")
	testsupport.AdvanceTo(t, store, processing, queue.StatusTranscribing)
	doomed := testsupport.NewVideoItem(t, store, "doomed")
	if _, err := store.Fail(ctx, doomed.ID, "x"); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 3 || health.Waiting != 1 || health.Processing != 1 || health.Failed != 1 {
		t.Fatalf("health = %+v", health)
	}
}

func TestClearScopes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	published := testsupport.NewVideoItem(t, store, "published")
	testsupport.AdvanceTo(t, store, published, queue.StatusPublished)
	// Published items always carry publish history; clearing must take
	// the events with them.
	err := store.RecordPublishEvent(ctx, &queue.PublishEvent{
		ItemID:      published.ID,
		AttemptedAt: time.Now().UTC(),
		Success:     true,
		PlatformID:  "shorts",
	})
	if err != nil {
		t.Fatalf("RecordPublishEvent: %v", err)
	}
	doomed := testsupport.NewVideoItem(t, store, "doomed")
	if _, err := store.Fail(ctx, doomed.ID, "x"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	testsupport.NewVideoItem(t, store, "active")

	if n, err := store.ClearCompleted(ctx); err != nil || n != 1 {
		t.Fatalf("ClearCompleted = (%d, %v), want (1, nil)", n, err)
	}
	if n, err := store.ClearFailed(ctx); err != nil || n != 1 {
		t.Fatalf("ClearFailed = (%d, %v), want (1, nil)", n, err)
	}
	if n, err := store.ClearAll(ctx); err != nil || n != 1 {
		t.Fatalf("ClearAll = (%d, %v), want (1, nil)", n, err)
	}
	if events, err := store.PublishEventsForItem(ctx, published.ID); err != nil || len(events) != 0 {
		t.Fatalf("publish events after clear = (%d, %v), want none", len(events), err)
	}
}

func TestRemoveItemWithPublishHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewVideoItem(t, store, "remove-me")
	item = testsupport.AdvanceTo(t, store, item, queue.StatusPublished)
	err := store.RecordPublishEvent(ctx, &queue.PublishEvent{
		ItemID:      item.ID,
		AttemptedAt: time.Now().UTC(),
		Success:     true,
		PlatformID:  "shorts",
	})
	if err != nil {
		t.Fatalf("RecordPublishEvent: %v", err)
	}

	ok, err := store.Remove(ctx, item.ID)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !ok {
		t.Fatal("Remove reported the item missing")
	}
	if current, err := store.GetByID(ctx, item.ID); err != nil || current != nil {
		t.Fatalf("item still present after remove: (%+v, %v)", current, err)
	}
}

func TestPublishEventRollingWindow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewVideoItem(t, store, "published-often")
	now := time.Now().UTC()

	record := func(at time.Time, success bool) {
		t.Helper()
		err := store.RecordPublishEvent(ctx, &queue.PublishEvent{
			ItemID:      item.ID,
			AttemptedAt: at,
			Success:     success,
			PlatformID:  "shorts",
		})
		if err != nil {
			t.Fatalf("RecordPublishEvent: %v", err)
		}
	}

	record(now.Add(-30*time.Hour), true) // outside the window
	record(now.Add(-20*time.Hour), true)
	record(now.Add(-10*time.Hour), true)
	record(now.Add(-1*time.Hour), false) // failures never count
	record(now.Add(-5*time.Minute), true)

	count, err := store.CountSuccessfulPublishesSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("CountSuccessfulPublishesSince: %v", err)
	}
	if count != 3 {
		t.Fatalf("successes in window = %d, want 3", count)
	}

	last, err := store.LastSuccessfulPublish(ctx)
	if err != nil {
		t.Fatalf("LastSuccessfulPublish: %v", err)
	}
	if diff := last.Sub(now.Add(-5 * time.Minute)); diff < -time.Second || diff > time.Second {
		t.Fatalf("last successful publish = %v, want ~%v", last, now.Add(-5*time.Minute))
	}

	history, err := store.PublishEventsForItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("PublishEventsForItem: %v", err)
	}
	if len(history) != 5 {
		t.Fatalf("history length = %d, want 5", len(history))
	}
}

func TestLastSuccessfulPublishZeroWhenNone(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	last, err := store.LastSuccessfulPublish(context.Background())
	if err != nil {
		t.Fatalf("LastSuccessfulPublish: %v", err)
	}
	if !last.IsZero() {
		t.Fatalf("expected zero time with no publishes, got %v", last)
	}
}

func TestInsertSiblingSharesVideo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	parent := testsupport.NewVideoItem(t, store, "fan-out")
	parent = testsupport.AdvanceTo(t, store, parent, queue.StatusSegmenting)

	sibling, err := store.InsertSibling(ctx, parent, "cand-2", 74, `{"audio":20}`, "pending_review")
	if err != nil {
		t.Fatalf("InsertSibling: %v", err)
	}
	if sibling.VideoID != parent.VideoID {
		t.Fatalf("sibling video = %d, want %d", sibling.VideoID, parent.VideoID)
	}
	if sibling.Status != queue.StatusScored {
		t.Fatalf("sibling status = %s, want scored", sibling.Status)
	}
	if sibling.CandidateID != "cand-2" || sibling.Score != 74 {
		t.Fatalf("sibling payload = %+v", sibling)
	}
}

func TestInsertSiblingIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	parent := testsupport.NewVideoItem(t, store, "fan-out-retry")
	parent = testsupport.AdvanceTo(t, store, parent, queue.StatusSegmenting)

	before, err := store.List(ctx)
	if err != nil {
		t.Fatalf("store.List: %v", err)
	}

	first, err := store.InsertSibling(ctx, parent, "cand-7", 68, `{"audio":18}`, "pending_review")
	if err != nil {
		t.Fatalf("InsertSibling: %v", err)
	}
	again, err := store.InsertSibling(ctx, parent, "cand-7", 68, `{"audio":18}`, "pending_review")
	if err != nil {
		t.Fatalf("InsertSibling repeat: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("repeat insert created item %d, want existing %d", again.ID, first.ID)
	}

	after, err := store.List(ctx)
	if err != nil {
		t.Fatalf("store.List: %v", err)
	}
	if len(after) != len(before)+1 {
		t.Fatalf("queue grew from %d to %d items, want exactly one new sibling", len(before), len(after))
	}
}

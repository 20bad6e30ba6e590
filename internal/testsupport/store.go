package testsupport

import (
	"context"
	"testing"

	"shortpipe/internal/config"
	"shortpipe/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewVideoItem enqueues a discovered video for tests.
func NewVideoItem(t testing.TB, store *queue.Store, title string) *queue.Item {
	t.Helper()

	item, err := store.NewVideoItem(context.Background(), "", title, "https://example.test/"+title, 600)
	if err != nil {
		t.Fatalf("store.NewVideoItem: %v", err)
	}
	return item
}

// SeedTranscript stores a transcript for the item's video and binds it.
func SeedTranscript(t testing.TB, store *queue.Store, item *queue.Item, segments []queue.TranscriptSegment) *queue.Transcript {
	t.Helper()

	transcript, err := store.SaveTranscript(context.Background(), item.VideoID, "en", segments)
	if err != nil {
		t.Fatalf("store.SaveTranscript: %v", err)
	}
	item.TranscriptID = transcript.ID
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("store.Update: %v", err)
	}
	return transcript
}

// AdvanceTo walks an item forward along the happy path to the target
// status using legal transitions only. Review outcomes branch off the
// happy path at template_assigned and are handled explicitly.
func AdvanceTo(t testing.TB, store *queue.Store, item *queue.Item, target queue.Status) *queue.Item {
	t.Helper()

	if target == queue.StatusPendingReview || target == queue.StatusRejected {
		if item.Status == target {
			return item
		}
		staged := AdvanceTo(t, store, item, queue.StatusTemplateAssigned)
		next, err := store.Transition(context.Background(), staged.ID, queue.StatusTemplateAssigned, target, nil)
		if err != nil {
			t.Fatalf("transition %s -> %s: %v", queue.StatusTemplateAssigned, target, err)
		}
		return next
	}

	path := []queue.Status{
		queue.StatusDiscovered,
		queue.StatusTranscribing,
		queue.StatusTranscribed,
		queue.StatusSegmenting,
		queue.StatusScored,
		queue.StatusTemplateAssigned,
		queue.StatusApproved,
		queue.StatusRendering,
		queue.StatusPublishReady,
		queue.StatusScheduled,
		queue.StatusPublished,
	}

	current := item
	for i := 0; i+1 < len(path); i++ {
		if current.Status == target {
			return current
		}
		if current.Status != path[i] {
			continue
		}
		next, err := store.Transition(context.Background(), current.ID, path[i], path[i+1], nil)
		if err != nil {
			t.Fatalf("transition %s -> %s: %v", path[i], path[i+1], err)
		}
		current = next
	}
	if current.Status != target {
		t.Fatalf("could not advance item to %s (stuck at %s)", target, current.Status)
	}
	return current
}

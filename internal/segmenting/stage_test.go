package segmenting_test

import (
	"context"
	"testing"

	"shortpipe/internal/logging"
	"shortpipe/internal/queue"
	"shortpipe/internal/segmenting"
	"shortpipe/internal/services"
	"shortpipe/internal/testsupport"
)

// Two well-separated segments with distinct speech, each an in-bounds
// span on its own: segmentation yields exactly two candidates, the top
// one staying on the item and the other fanning out as a sibling.
func transcriptWithTwoCandidates() []queue.TranscriptSegment {
	return []queue.TranscriptSegment{
		{Text: "the first incredible highlight of the early match", Start: 0, End: 45},
		{Text: "a second stunning highlight closes out the show", Start: 500, End: 545},
	}
}

func TestExecuteRetryDoesNotDuplicateWork(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewVideoItem(t, store, "retryable")
	testsupport.SeedTranscript(t, store, item, transcriptWithTwoCandidates())
	item = testsupport.AdvanceTo(t, store, item, queue.StatusSegmenting)

	compositor := &testsupport.FakeCompositor{
		Signals:          testsupport.GoodSignals(),
		AnalyzeFailFirst: 1,
	}
	segmenter := segmenting.NewSegmenter(cfg, store, logging.NewNop(), compositor)

	// The first run persists its candidates, then dies analyzing them.
	err := segmenter.Execute(ctx, item)
	if err == nil {
		t.Fatal("first execute should fail on the flaky compositor")
	}
	if !services.IsTransient(err) {
		t.Fatalf("analyze failure should be transient, got %v", err)
	}

	if err := segmenter.Execute(ctx, item); err != nil {
		t.Fatalf("retried execute: %v", err)
	}
	// A second full rerun must also be a no-op for stored state.
	if err := segmenter.Execute(ctx, item); err != nil {
		t.Fatalf("repeated execute: %v", err)
	}

	candidates, err := store.CandidatesForTranscript(ctx, item.TranscriptID)
	if err != nil {
		t.Fatalf("CandidatesForTranscript: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d stored candidates, want 2 after retries", len(candidates))
	}

	siblings, err := store.List(ctx, queue.StatusScored)
	if err != nil {
		t.Fatalf("store.List: %v", err)
	}
	if len(siblings) != 1 {
		t.Fatalf("got %d scored siblings, want exactly 1 after retries", len(siblings))
	}
	if siblings[0].CandidateID == item.CandidateID {
		t.Fatalf("sibling shares the top candidate %s", item.CandidateID)
	}
}

func TestExecuteAssignsStableCandidateIDs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewVideoItem(t, store, "stable-ids")
	testsupport.SeedTranscript(t, store, item, transcriptWithTwoCandidates())
	item = testsupport.AdvanceTo(t, store, item, queue.StatusSegmenting)

	compositor := &testsupport.FakeCompositor{Signals: testsupport.GoodSignals()}
	segmenter := segmenting.NewSegmenter(cfg, store, logging.NewNop(), compositor)

	if err := segmenter.Execute(ctx, item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	first := item.CandidateID
	if first == "" {
		t.Fatal("execute left no candidate bound to the item")
	}

	if err := segmenter.Execute(ctx, item); err != nil {
		t.Fatalf("Execute again: %v", err)
	}
	if item.CandidateID != first {
		t.Fatalf("top candidate id changed across runs: %s != %s", item.CandidateID, first)
	}
}

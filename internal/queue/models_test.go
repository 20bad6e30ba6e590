package queue

import "testing"

func TestCanTransitionHappyPath(t *testing.T) {
	path := []Status{
		StatusDiscovered,
		StatusTranscribing,
		StatusTranscribed,
		StatusSegmenting,
		StatusScored,
		StatusTemplateAssigned,
		StatusApproved,
		StatusRendering,
		StatusPublishReady,
		StatusScheduled,
		StatusPublished,
	}
	for i := 0; i+1 < len(path); i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Errorf("expected %s -> %s to be legal", path[i], path[i+1])
		}
	}
}

func TestCanTransitionRejectsSkips(t *testing.T) {
	cases := []struct {
		from, to Status
	}{
		{StatusDiscovered, StatusTranscribed},
		{StatusTranscribed, StatusScored},
		{StatusScored, StatusApproved},
		{StatusApproved, StatusPublishReady},
		{StatusPublishReady, StatusPublished},
		{StatusScored, StatusSegmenting}, // backwards
		{StatusPublished, StatusDiscovered},
	}
	for _, tc := range cases {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be illegal", tc.from, tc.to)
		}
	}
}

func TestCanTransitionDispositionBranches(t *testing.T) {
	for _, to := range []Status{StatusApproved, StatusRejected, StatusPendingReview} {
		if !CanTransition(StatusTemplateAssigned, to) {
			t.Errorf("expected template_assigned -> %s to be legal", to)
		}
	}
	for _, to := range []Status{StatusApproved, StatusRejected} {
		if !CanTransition(StatusPendingReview, to) {
			t.Errorf("expected pending_review -> %s to be legal", to)
		}
	}
	if CanTransition(StatusPendingReview, StatusRendering) {
		t.Error("pending_review must not skip approval")
	}
}

func TestCanTransitionPublishRetry(t *testing.T) {
	if !CanTransition(StatusScheduled, StatusPublishReady) {
		t.Error("scheduled -> publish_ready (retry) must be legal")
	}
}

func TestAnyNonTerminalCanFail(t *testing.T) {
	for _, status := range AllStatuses() {
		got := CanTransition(status, StatusFailed)
		want := !IsTerminal(status)
		if got != want {
			t.Errorf("CanTransition(%s, failed) = %v, want %v", status, got, want)
		}
	}
}

func TestTerminalStatusesHaveNoExit(t *testing.T) {
	for _, terminal := range []Status{StatusPublished, StatusRejected, StatusFailed} {
		for _, to := range AllStatuses() {
			if CanTransition(terminal, to) {
				t.Errorf("terminal %s must not transition to %s", terminal, to)
			}
		}
	}
}

func TestRankMonotonicAlongPipeline(t *testing.T) {
	prev := -1
	for _, status := range []Status{
		StatusDiscovered, StatusTranscribing, StatusTranscribed, StatusSegmenting,
		StatusScored, StatusTemplateAssigned, StatusPendingReview, StatusApproved,
		StatusRendering, StatusPublishReady, StatusScheduled, StatusPublished,
	} {
		if Rank(status) <= prev {
			t.Errorf("rank of %s (%d) not greater than predecessor (%d)", status, Rank(status), prev)
		}
		prev = Rank(status)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := ParseStatus("  Publish_Ready "); !ok || status != StatusPublishReady {
		t.Errorf("ParseStatus normalized = (%q, %v)", status, ok)
	}
	if _, ok := ParseStatus("ripping"); ok {
		t.Error("unknown status must not parse")
	}
	if _, ok := ParseStatus(""); ok {
		t.Error("empty status must not parse")
	}
}

func TestIsProcessingStatus(t *testing.T) {
	processing := map[Status]bool{
		StatusTranscribing: true,
		StatusSegmenting:   true,
		StatusRendering:    true,
		StatusScheduled:    true,
	}
	for _, status := range AllStatuses() {
		if IsProcessingStatus(status) != processing[status] {
			t.Errorf("IsProcessingStatus(%s) = %v", status, IsProcessingStatus(status))
		}
	}
}

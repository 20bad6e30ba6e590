package notifications

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"shortpipe/internal/config"
)

type capturedRequest struct {
	body     string
	title    string
	tags     string
	priority string
}

// captureServer records every ntfy post it receives.
func captureServer(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	t.Helper()

	var mu sync.Mutex
	var requests []capturedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, capturedRequest{
			body:     string(body),
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	return server, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), requests...)
	}
}

func ntfyConfig(endpoint string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = endpoint
	cfg.Notifications.Publish = true
	cfg.Notifications.Review = true
	cfg.Notifications.Errors = true
	cfg.Notifications.DedupWindowSeconds = 0
	return &cfg
}

func TestNewServiceWithoutTopicIsNoop(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = "   "
	service := NewService(&cfg)
	if _, ok := service.(noopService); !ok {
		t.Fatalf("service = %T, want noop without a topic", service)
	}
	if err := service.NotifyPublished(context.Background(), "Anything", "shorts"); err != nil {
		t.Fatalf("noop notify: %v", err)
	}
}

func TestNotifyPublishedPostsMessage(t *testing.T) {
	server, recorded := captureServer(t, http.StatusOK)
	service := NewService(ntfyConfig(server.URL))

	if err := service.NotifyPublished(context.Background(), "Big Clip", "shorts"); err != nil {
		t.Fatalf("NotifyPublished: %v", err)
	}

	requests := recorded()
	if len(requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(requests))
	}
	got := requests[0]
	if got.body != "Published: Big Clip (shorts)" {
		t.Fatalf("body = %q", got.body)
	}
	if got.title != "shortpipe - Published" {
		t.Fatalf("title header = %q", got.title)
	}
	if got.tags == "" {
		t.Fatal("tags header missing")
	}
}

func TestNotifyPublishFailedSetsHighPriority(t *testing.T) {
	server, recorded := captureServer(t, http.StatusOK)
	service := NewService(ntfyConfig(server.URL))

	if err := service.NotifyPublishFailed(context.Background(), "Doomed Clip", 3); err != nil {
		t.Fatalf("NotifyPublishFailed: %v", err)
	}

	requests := recorded()
	if len(requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(requests))
	}
	if requests[0].priority != "high" {
		t.Fatalf("priority = %q, want high", requests[0].priority)
	}
}

func TestDisabledCategoriesSendNothing(t *testing.T) {
	server, recorded := captureServer(t, http.StatusOK)
	cfg := ntfyConfig(server.URL)
	cfg.Notifications.Publish = false
	cfg.Notifications.Review = false
	cfg.Notifications.Errors = false
	service := NewService(cfg)
	ctx := context.Background()

	if err := service.NotifyPublished(ctx, "Silent", "shorts"); err != nil {
		t.Fatalf("NotifyPublished: %v", err)
	}
	if err := service.NotifyPendingReview(ctx, "Silent", 60); err != nil {
		t.Fatalf("NotifyPendingReview: %v", err)
	}
	if err := service.NotifyError(ctx, errors.New("boom"), "segment"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}

	if requests := recorded(); len(requests) != 0 {
		t.Fatalf("disabled categories sent %d requests", len(requests))
	}
}

func TestDedupWindowSuppressesRepeats(t *testing.T) {
	server, recorded := captureServer(t, http.StatusOK)
	cfg := ntfyConfig(server.URL)
	cfg.Notifications.DedupWindowSeconds = 300
	service := NewService(cfg)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := service.NotifyPublished(ctx, "Same Clip", "shorts"); err != nil {
			t.Fatalf("NotifyPublished %d: %v", i, err)
		}
	}
	// A different message is not a duplicate.
	if err := service.NotifyPublished(ctx, "Other Clip", "shorts"); err != nil {
		t.Fatalf("NotifyPublished: %v", err)
	}

	requests := recorded()
	if len(requests) != 2 {
		t.Fatalf("requests = %d, want 2 (repeat suppressed)", len(requests))
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	server, _ := captureServer(t, http.StatusBadGateway)
	service := NewService(ntfyConfig(server.URL))

	if err := service.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

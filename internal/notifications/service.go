package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"shortpipe/internal/config"
)

const userAgent = "shortpipe/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyPublished(ctx context.Context, title, platformID string) error
	NotifyPublishFailed(ctx context.Context, title string, attempts int) error
	NotifyPendingReview(ctx context.Context, title string, score int) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		publish:       cfg.Notifications.Publish,
		review:        cfg.Notifications.Review,
		errors:        cfg.Notifications.Errors,
		dedupWindow:   time.Duration(cfg.Notifications.DedupWindowSeconds) * time.Second,
		recentMessage: make(map[string]time.Time),
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	publish     bool
	review      bool
	errors      bool
	dedupWindow time.Duration

	mu            sync.Mutex
	recentMessage map[string]time.Time
}

func (n *ntfyService) NotifyPublished(ctx context.Context, title, platformID string) error {
	if !n.publish {
		return nil
	}
	title = strings.TrimSpace(title)
	message := fmt.Sprintf("Published: %s", title)
	if platformID = strings.TrimSpace(platformID); platformID != "" {
		message = fmt.Sprintf("%s (%s)", message, platformID)
	}
	return n.send(ctx, payload{
		title:   "shortpipe - Published",
		message: message,
		tags:    []string{"shortpipe", "publish", "completed"},
	})
}

func (n *ntfyService) NotifyPublishFailed(ctx context.Context, title string, attempts int) error {
	if !n.publish {
		return nil
	}
	title = strings.TrimSpace(title)
	return n.send(ctx, payload{
		title:    "shortpipe - Publish Failed",
		message:  fmt.Sprintf("Publish failed after %d attempts: %s", attempts, title),
		tags:     []string{"shortpipe", "publish", "failed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyPendingReview(ctx context.Context, title string, score int) error {
	if !n.review {
		return nil
	}
	title = strings.TrimSpace(title)
	return n.send(ctx, payload{
		title:   "shortpipe - Review Needed",
		message: fmt.Sprintf("Awaiting manual review (score %d): %s", score, title),
		tags:    []string{"shortpipe", "review", "pending"},
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "shortpipe - Error",
		message:  builder.String(),
		tags:     []string{"shortpipe", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "shortpipe - Test",
		message:  "Notification system test",
		tags:     []string{"shortpipe", "test"},
		priority: "low",
	})
}

// isDuplicate suppresses identical messages inside the dedup window so a
// flapping stage cannot flood the topic.
func (n *ntfyService) isDuplicate(message string) bool {
	if n.dedupWindow <= 0 {
		return false
	}
	now := time.Now()
	n.mu.Lock()
	defer n.mu.Unlock()
	if sent, ok := n.recentMessage[message]; ok && now.Sub(sent) < n.dedupWindow {
		return true
	}
	for msg, sent := range n.recentMessage {
		if now.Sub(sent) >= n.dedupWindow {
			delete(n.recentMessage, msg)
		}
	}
	n.recentMessage[message] = now
	return false
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	if n.isDuplicate(data.message) {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyPublished(context.Context, string, string) error  { return nil }
func (noopService) NotifyPublishFailed(context.Context, string, int) error { return nil }
func (noopService) NotifyPendingReview(context.Context, string, int) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error       { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }

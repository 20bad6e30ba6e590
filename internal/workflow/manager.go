package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"shortpipe/internal/config"
	"shortpipe/internal/logging"
	"shortpipe/internal/notifications"
	"shortpipe/internal/queue"
)

// Manager owns the pipeline poll loop. It claims items out of the queue
// store, dispatches them to the stage handler registered for their
// status, and records the outcome. Exactly one manager runs per daemon.
type Manager struct {
	cfg      *config.Config
	store    *queue.Store
	notifier notifications.Service
	logger   *slog.Logger

	pollInterval       time.Duration
	errorRetryInterval time.Duration
	stageRetryLimit    int

	stages       []pipelineStage
	stageByStart map[queue.Status]pipelineStage
	pollStatuses []queue.Status

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastErr  string
	lastItem *queue.Item
}

// NewManager constructs a workflow manager. Stages must be registered
// via ConfigureStages before Start.
func NewManager(cfg *config.Config, store *queue.Store, notifier notifications.Service, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:                cfg,
		store:              store,
		notifier:           notifier,
		logger:             logging.NewComponentLogger(logger, "workflow"),
		pollInterval:       time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		errorRetryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		stageRetryLimit:    cfg.Workflow.StageRetryLimit,
	}
}

func (m *Manager) noteError(message string) {
	m.mu.Lock()
	m.lastErr = message
	m.mu.Unlock()
}

func (m *Manager) noteItem(item *queue.Item) {
	if item == nil {
		return
	}
	cp := *item
	m.mu.Lock()
	m.lastItem = &cp
	m.mu.Unlock()
}

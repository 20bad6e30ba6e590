package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"shortpipe/internal/config"
	"shortpipe/internal/logging"
	"shortpipe/internal/notifications"
	"shortpipe/internal/queue"
	"shortpipe/internal/services"
)

// Scheduler runs the publish dispatch loop.
type Scheduler struct {
	cfg       *config.Config
	store     *queue.Store
	publisher services.Publisher
	notifier  notifications.Service
	logger    *slog.Logger
	clock     Clock

	windows        []config.DailyWindow
	tickInterval   time.Duration
	minInterval    time.Duration
	publishTimeout time.Duration
	maxPerDay      int
	retryLimit     int

	mu      sync.Mutex
	running bool
	paused  bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr string
}

// New constructs a scheduler. The publish windows are parsed once here;
// a malformed window is a configuration error.
func New(cfg *config.Config, store *queue.Store, publisher services.Publisher, notifier notifications.Service, logger *slog.Logger, clock Clock) (*Scheduler, error) {
	windows, err := cfg.PublishWindows()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "scheduler", "parse publish windows", "", err)
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Scheduler{
		cfg:            cfg,
		store:          store,
		publisher:      publisher,
		notifier:       notifier,
		logger:         logging.NewComponentLogger(logger, "scheduler"),
		clock:          clock,
		windows:        windows,
		tickInterval:   time.Duration(cfg.Publisher.TickInterval) * time.Second,
		minInterval:    time.Duration(cfg.Publisher.MinPublishInterval) * time.Minute,
		publishTimeout: time.Duration(cfg.Publisher.PublishTimeout) * time.Second,
		maxPerDay:      cfg.Publisher.MaxPublishesPerDay,
		retryLimit:     cfg.Publisher.RetryLimit,
	}, nil
}

// Start launches the tick loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("scheduler already running")
	}
	if s.publisher == nil {
		return errors.New("no publisher configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.wg.Add(1)
	go s.run(runCtx)

	s.logger.Info("scheduler started",
		logging.Duration("tick_interval", s.tickInterval),
		logging.Int("max_per_day", s.maxPerDay),
		logging.Int("windows", len(s.windows)),
	)
	return nil
}

// Stop cancels the tick loop. An in-flight publish attempt is never
// cancelled; Stop waits for it to settle first.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()

	s.mu.Lock()
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

// Pause suspends dispatch without stopping the loop. Items keep
// accumulating in publish_ready.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
	s.logger.Info("scheduler paused")
}

// Resume re-enables dispatch.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
	s.logger.Info("scheduler resumed")
}

// Paused reports whether dispatch is currently suspended.
func (s *Scheduler) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Running reports whether the tick loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status is a point-in-time snapshot for the status surface.
type Status struct {
	Running          bool
	Paused           bool
	LastError        string
	PublishedLast24h int
	PublishReady     int
}

// Snapshot gathers the scheduler status.
func (s *Scheduler) Snapshot(ctx context.Context) Status {
	s.mu.Lock()
	status := Status{
		Running:   s.running,
		Paused:    s.paused,
		LastError: s.lastErr,
	}
	s.mu.Unlock()

	now := s.clock.Now().UTC()
	if count, err := s.store.CountSuccessfulPublishesSince(ctx, now.Add(-24*time.Hour)); err == nil {
		status.PublishedLast24h = count
	}
	if items, err := s.store.PublishReadyFIFO(ctx); err == nil {
		status.PublishReady = len(items)
	}
	return status
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if s.Paused() {
			continue
		}
		if err := s.dispatch(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("dispatch", logging.Error(err))
			s.noteError(fmt.Sprintf("dispatch: %v", err))
		}
	}
}

func (s *Scheduler) noteError(message string) {
	s.mu.Lock()
	s.lastErr = message
	s.mu.Unlock()
}

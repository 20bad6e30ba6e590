package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shortpipe/internal/logging"
)

// Start launches the poll loop. It returns an error when the manager is
// already running or no stages are registered.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow manager already running")
	}
	if len(m.stages) == 0 {
		return errors.New("no stages configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	go m.run(runCtx)

	m.logger.Info("workflow manager started",
		logging.Duration("poll_interval", m.pollInterval),
		logging.Int("stages", len(m.stages)),
	)
	return nil
}

// Stop cancels the poll loop and waits for any in-flight stage to
// finish its current item.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.mu.Unlock()

	cancel()
	m.wg.Wait()

	m.mu.Lock()
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	m.logger.Info("workflow manager stopped")
}

// Running reports whether the poll loop is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		item, err := m.store.NextForStatuses(ctx, m.pollStatuses...)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Error("poll queue", logging.Error(err))
			m.noteError(fmt.Sprintf("poll queue: %v", err))
			if !m.sleep(ctx, m.errorRetryInterval) {
				return
			}
			continue
		}

		if item == nil {
			if !m.sleep(ctx, m.pollInterval) {
				return
			}
			continue
		}

		if err := m.processItem(ctx, item); err != nil {
			if ctx.Err() != nil {
				return
			}
			if !m.sleep(ctx, m.errorRetryInterval) {
				return
			}
		}
	}
}

// sleep waits for the given duration or until the context is cancelled.
// It reports false when the loop should exit.
func (m *Manager) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

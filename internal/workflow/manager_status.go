package workflow

import (
	"context"

	"shortpipe/internal/queue"
	"shortpipe/internal/stage"
)

// StatusSummary is a point-in-time snapshot of the manager for the
// status surface: loop state, last outcome, queue counts, and per-stage
// health probes.
type StatusSummary struct {
	Running     bool
	LastError   string
	LastItem    *queue.Item
	QueueStats  map[queue.Status]int
	StageHealth []stage.Health
}

// Status gathers the summary. Queue stats come from the store; stage
// health comes from each registered handler's own probe.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.Lock()
	summary := StatusSummary{
		Running:   m.running,
		LastError: m.lastErr,
	}
	if m.lastItem != nil {
		cp := *m.lastItem
		summary.LastItem = &cp
	}
	m.mu.Unlock()

	if stats, err := m.store.Stats(ctx); err == nil {
		summary.QueueStats = stats
	}

	summary.StageHealth = make([]stage.Health, 0, len(m.stages))
	for _, stg := range m.stages {
		summary.StageHealth = append(summary.StageHealth, stg.handler.HealthCheck(ctx))
	}
	return summary
}

// Healthy reports whether every registered stage passes its health probe.
func (m *Manager) Healthy(ctx context.Context) bool {
	for _, stg := range m.stages {
		if !stg.handler.HealthCheck(ctx).Ready {
			return false
		}
	}
	return true
}

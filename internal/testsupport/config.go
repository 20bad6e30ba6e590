package testsupport

import (
	"path/filepath"
	"testing"

	"shortpipe/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per
// test. Timing knobs are tightened so loop-driven tests finish quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ArtifactDir = filepath.Join(base, "artifacts")
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1
	cfg.Publisher.TickInterval = 1

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithScoringThresholds overrides the disposition thresholds.
func WithScoringThresholds(approve, reject int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Scoring.ApproveThreshold = approve
		cfg.Scoring.RejectThreshold = reject
	}
}

// WithSegmenterBounds overrides the candidate duration bounds.
func WithSegmenterBounds(minSeconds, maxSeconds float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Segmenter.MinDuration = minSeconds
		cfg.Segmenter.MaxDuration = maxSeconds
	}
}

// WithPublishPolicy overrides the scheduler rate limits.
func WithPublishPolicy(maxPerDay, minIntervalMinutes, retryLimit int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Publisher.MaxPublishesPerDay = maxPerDay
		cfg.Publisher.MinPublishInterval = minIntervalMinutes
		cfg.Publisher.RetryLimit = retryLimit
	}
}

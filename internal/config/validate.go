package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSegmenter(); err != nil {
		return err
	}
	if err := c.validateScoring(); err != nil {
		return err
	}
	if err := c.validateTemplates(); err != nil {
		return err
	}
	if err := c.validatePublisher(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSegmenter() error {
	if c.Segmenter.MinDuration <= 0 {
		return errors.New("segmenter.min_duration must be positive")
	}
	if c.Segmenter.MaxDuration <= 0 {
		return errors.New("segmenter.max_duration must be positive")
	}
	if c.Segmenter.MinDuration > c.Segmenter.MaxDuration {
		return fmt.Errorf("segmenter.min_duration (%g) must not exceed segmenter.max_duration (%g)",
			c.Segmenter.MinDuration, c.Segmenter.MaxDuration)
	}
	if c.Segmenter.OverlapThreshold <= 0 || c.Segmenter.OverlapThreshold > 1 {
		return errors.New("segmenter.overlap_threshold must be in (0, 1]")
	}
	return nil
}

func (c *Config) validateScoring() error {
	if c.Scoring.ApproveThreshold < 0 || c.Scoring.ApproveThreshold > 100 {
		return errors.New("scoring.approve_threshold must be between 0 and 100")
	}
	if c.Scoring.RejectThreshold < 0 || c.Scoring.RejectThreshold > 100 {
		return errors.New("scoring.reject_threshold must be between 0 and 100")
	}
	if c.Scoring.RejectThreshold > c.Scoring.ApproveThreshold {
		return fmt.Errorf("scoring.reject_threshold (%d) must not exceed scoring.approve_threshold (%d)",
			c.Scoring.RejectThreshold, c.Scoring.ApproveThreshold)
	}
	return nil
}

func (c *Config) validateTemplates() error {
	if len(c.Templates) == 0 {
		return errors.New("templates must define at least one entry")
	}
	seen := make(map[string]struct{}, len(c.Templates))
	enabled := 0
	for i, t := range c.Templates {
		if strings.TrimSpace(t.ID) == "" {
			return fmt.Errorf("templates[%d].id must be set", i)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("templates[%d].id %q is duplicated", i, t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.MinScore < 0 || t.MinScore > 100 || t.MaxScore < 0 || t.MaxScore > 100 {
			return fmt.Errorf("template %q score tier must be within 0..100", t.ID)
		}
		if t.MinScore > t.MaxScore {
			return fmt.Errorf("template %q min_score must not exceed max_score", t.ID)
		}
		if t.MinDuration < 0 || t.MaxDuration < 0 {
			return fmt.Errorf("template %q duration tier must not be negative", t.ID)
		}
		if t.MaxDuration > 0 && t.MinDuration > t.MaxDuration {
			return fmt.Errorf("template %q min_duration must not exceed max_duration", t.ID)
		}
		if t.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return errors.New("templates must enable at least one entry")
	}
	return nil
}

func (c *Config) validatePublisher() error {
	if c.Publisher.MaxPublishesPerDay < 1 {
		return errors.New("publisher.max_publishes_per_day must be >= 1")
	}
	if c.Publisher.MinPublishInterval < 0 {
		return errors.New("publisher.min_publish_interval must be >= 0 (minutes)")
	}
	if c.Publisher.RetryLimit < 0 {
		return errors.New("publisher.retry_limit must be >= 0")
	}
	if c.Publisher.TickInterval <= 0 {
		return errors.New("publisher.tick_interval must be positive (seconds)")
	}
	if c.Publisher.PublishTimeout <= 0 {
		return errors.New("publisher.publish_timeout must be positive (seconds)")
	}
	if _, err := c.PublishWindows(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":      c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval":     c.Workflow.ErrorRetryInterval,
		"workflow.stuck_processing_timeout": c.Workflow.StuckProcessingTimeout,
		"workflow.stage_retry_limit":        c.Workflow.StageRetryLimit,
		"transcriber.request_timeout":       c.Transcriber.RequestTimeout,
	})
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	if c.Notifications.DedupWindowSeconds < 0 {
		return errors.New("notifications.dedup_window_seconds must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

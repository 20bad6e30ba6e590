package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSegmenter()
	c.normalizeTemplates()
	c.normalizePublisher()
	c.normalizeTranscriber()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ArtifactDir) == "" {
		c.Paths.ArtifactDir = defaultArtifactDir
	}
	if c.Paths.ArtifactDir, err = expandPath(c.Paths.ArtifactDir); err != nil {
		return fmt.Errorf("paths.artifact_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSegmenter() {
	if len(c.Segmenter.Keywords) == 0 {
		return
	}
	keywords := make([]string, 0, len(c.Segmenter.Keywords))
	seen := make(map[string]struct{}, len(c.Segmenter.Keywords))
	for _, keyword := range c.Segmenter.Keywords {
		normalized := strings.ToLower(strings.TrimSpace(keyword))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		keywords = append(keywords, normalized)
	}
	c.Segmenter.Keywords = keywords
}

func (c *Config) normalizeTemplates() {
	for i := range c.Templates {
		t := &c.Templates[i]
		t.ID = strings.TrimSpace(t.ID)
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			t.Name = t.ID
		}
		if t.MaxScore == 0 {
			t.MaxScore = 100
		}
		tags := make([]string, 0, len(t.ContentTypes))
		for _, tag := range t.ContentTypes {
			normalized := strings.ToLower(strings.TrimSpace(tag))
			if normalized != "" {
				tags = append(tags, normalized)
			}
		}
		t.ContentTypes = tags
	}
}

func (c *Config) normalizePublisher() {
	windows := make([]string, 0, len(c.Publisher.Windows))
	for _, window := range c.Publisher.Windows {
		trimmed := strings.TrimSpace(window)
		if trimmed != "" {
			windows = append(windows, trimmed)
		}
	}
	c.Publisher.Windows = windows
	c.Publisher.PlatformID = strings.TrimSpace(c.Publisher.PlatformID)
	if c.Publisher.PlatformID == "" {
		c.Publisher.PlatformID = defaultPlatformID
	}
	if c.Publisher.TickInterval <= 0 {
		c.Publisher.TickInterval = defaultTickInterval
	}
	if c.Publisher.PublishTimeout <= 0 {
		c.Publisher.PublishTimeout = defaultPublishTimeout
	}
}

func (c *Config) normalizeTranscriber() {
	c.Transcriber.Language = strings.ToLower(strings.TrimSpace(c.Transcriber.Language))
	if c.Transcriber.Language == "" {
		c.Transcriber.Language = defaultTranscribeLanguage
	}
	if c.Transcriber.RequestTimeout <= 0 {
		c.Transcriber.RequestTimeout = defaultTranscribeTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

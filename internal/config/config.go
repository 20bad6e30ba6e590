package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	LogDir      string `toml:"log_dir"`
	ArtifactDir string `toml:"artifact_dir"`
}

// Segmenter contains candidate extraction settings.
type Segmenter struct {
	MinDuration      float64  `toml:"min_duration"`
	MaxDuration      float64  `toml:"max_duration"`
	Keywords         []string `toml:"keywords"`
	OverlapThreshold float64  `toml:"overlap_threshold"`
}

// Scoring contains disposition thresholds for scored composites.
type Scoring struct {
	ApproveThreshold int `toml:"approve_threshold"`
	RejectThreshold  int `toml:"reject_threshold"`
}

// Template describes one entry of the presentation template catalog.
type Template struct {
	ID           string   `toml:"id"`
	Name         string   `toml:"name"`
	ContentTypes []string `toml:"content_types"`
	MinScore     int      `toml:"min_score"`
	MaxScore     int      `toml:"max_score"`
	MinDuration  float64  `toml:"min_duration"`
	MaxDuration  float64  `toml:"max_duration"`
	Priority     int      `toml:"priority"`
	Enabled      bool     `toml:"enabled"`
}

// Publisher contains scheduler policy: windows, rate limits, retries.
type Publisher struct {
	Windows            []string `toml:"publish_windows"`
	MaxPublishesPerDay int      `toml:"max_publishes_per_day"`
	MinPublishInterval int      `toml:"min_publish_interval"`
	RetryLimit         int      `toml:"retry_limit"`
	TickInterval       int      `toml:"tick_interval"`
	PublishTimeout     int      `toml:"publish_timeout"`
	PlatformID         string   `toml:"platform_id"`
}

// Transcriber contains transcription collaborator settings.
type Transcriber struct {
	Language       string `toml:"language"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic          string `toml:"ntfy_topic"`
	RequestTimeout     int    `toml:"request_timeout"`
	Publish            bool   `toml:"publish"`
	Review             bool   `toml:"review"`
	Errors             bool   `toml:"errors"`
	DedupWindowSeconds int    `toml:"dedup_window_seconds"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval      int `toml:"queue_poll_interval"`
	ErrorRetryInterval     int `toml:"error_retry_interval"`
	StuckProcessingTimeout int `toml:"stuck_processing_timeout"`
	StageRetryLimit        int `toml:"stage_retry_limit"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for shortpipe.
//
// Configuration sections by subsystem:
//   - Paths: data, log, and artifact directories
//   - Segmenter: candidate duration bounds, keywords, overlap threshold
//   - Scoring: approve/reject disposition thresholds
//   - Templates: ordered presentation template catalog
//   - Publisher: publish windows, rolling rate limits, retry budget
//   - Transcriber: transcription language and timeout
//   - Notifications: ntfy push notification settings
//   - Workflow: daemon polling intervals
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Segmenter     Segmenter     `toml:"segmenter"`
	Scoring       Scoring       `toml:"scoring"`
	Templates     []Template    `toml:"templates"`
	Publisher     Publisher     `toml:"publisher"`
	Transcriber   Transcriber   `toml:"transcriber"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shortpipe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/shortpipe/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shortpipe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.ArtifactDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SocketPath returns the daemon control socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.DataDir, "shortpipe.sock")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "shortpipe.lock")
}

// PIDPath returns the daemon pid file location.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.DataDir, "shortpipe.pid")
}

// EnabledTemplates returns catalog entries with the enabled flag set,
// preserving catalog order.
func (c *Config) EnabledTemplates() []Template {
	var enabled []Template
	for _, t := range c.Templates {
		if t.Enabled {
			enabled = append(enabled, t)
		}
	}
	return enabled
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

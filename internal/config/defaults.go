package config

const (
	defaultDataDir     = "~/.local/share/shortpipe"
	defaultLogDir      = "~/.local/share/shortpipe/logs"
	defaultArtifactDir = "~/.local/share/shortpipe/artifacts"

	defaultMinDuration      = 20.0
	defaultMaxDuration      = 60.0
	defaultOverlapThreshold = 0.5

	defaultApproveThreshold = 80
	defaultRejectThreshold  = 40

	defaultMaxPublishesPerDay = 3
	defaultMinPublishInterval = 90
	defaultRetryLimit         = 3
	defaultTickInterval       = 30
	defaultPublishTimeout     = 120
	defaultPlatformID         = "shorts"

	defaultTranscribeLanguage = "en"
	defaultTranscribeTimeout  = 600

	defaultNotifyRequestTimeout = 10
	defaultNotifyDedupWindow    = 600

	defaultQueuePollInterval      = 5
	defaultErrorRetryInterval     = 10
	defaultStuckProcessingTimeout = 3600
	defaultStageRetryLimit        = 3

	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 60
)

func defaultPublishWindows() []string {
	return []string{"09:00-11:00", "17:00-21:00"}
}

func defaultTemplates() []Template {
	return []Template{
		{
			ID:           "tutorial-callout",
			Name:         "Tutorial Callout",
			ContentTypes: []string{"tutorial", "howto"},
			MinScore:     0,
			MaxScore:     100,
			MinDuration:  0,
			MaxDuration:  0,
			Priority:     30,
			Enabled:      true,
		},
		{
			ID:       "premium-spotlight",
			Name:     "Premium Spotlight",
			MinScore: 85,
			MaxScore: 100,
			Priority: 20,
			Enabled:  true,
		},
		{
			ID:          "quick-hit",
			Name:        "Quick Hit",
			MinScore:    0,
			MaxScore:    100,
			MinDuration: 0,
			MaxDuration: 30,
			Priority:    10,
			Enabled:     true,
		},
		{
			ID:       "minimal",
			Name:     "Minimal",
			Priority: 1,
			Enabled:  true,
		},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			LogDir:      defaultLogDir,
			ArtifactDir: defaultArtifactDir,
		},
		Segmenter: Segmenter{
			MinDuration:      defaultMinDuration,
			MaxDuration:      defaultMaxDuration,
			OverlapThreshold: defaultOverlapThreshold,
		},
		Scoring: Scoring{
			ApproveThreshold: defaultApproveThreshold,
			RejectThreshold:  defaultRejectThreshold,
		},
		Templates: defaultTemplates(),
		Publisher: Publisher{
			Windows:            defaultPublishWindows(),
			MaxPublishesPerDay: defaultMaxPublishesPerDay,
			MinPublishInterval: defaultMinPublishInterval,
			RetryLimit:         defaultRetryLimit,
			TickInterval:       defaultTickInterval,
			PublishTimeout:     defaultPublishTimeout,
			PlatformID:         defaultPlatformID,
		},
		Transcriber: Transcriber{
			Language:       defaultTranscribeLanguage,
			RequestTimeout: defaultTranscribeTimeout,
		},
		Notifications: Notifications{
			RequestTimeout:     defaultNotifyRequestTimeout,
			Publish:            true,
			Review:             true,
			Errors:             true,
			DedupWindowSeconds: defaultNotifyDedupWindow,
		},
		Workflow: Workflow{
			QueuePollInterval:      defaultQueuePollInterval,
			ErrorRetryInterval:     defaultErrorRetryInterval,
			StuckProcessingTimeout: defaultStuckProcessingTimeout,
			StageRetryLimit:        defaultStageRetryLimit,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

package config

const (
	defaultLogDir              = "~/.local/share/curator/logs"
	defaultCacheDir            = "~/.local/share/curator/cache"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultOnFolderConflict    = "merge"
	defaultBatchSize           = 8
	defaultConfidenceThreshold = 0.6
	defaultMaxParallelBatches  = 1
	defaultFingerprintMode     = "stat"
	defaultClassifierBaseURL   = "https://openrouter.ai/api/v1/chat/completions"
	defaultClassifierModel     = "google/gemini-3-flash-preview"
	defaultClassifierReferer   = "https://github.com/curator-dev/curator"
	defaultClassifierTitle     = "Curator File Classifier"
	defaultClassifierTimeout   = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			CacheDir: defaultCacheDir,
		},
		Organize: Organize{
			OnFolderConflict:   defaultOnFolderConflict,
			PreserveTimestamps: true,
		},
		Suggestions: Suggestions{
			BatchSize:           defaultBatchSize,
			ConfidenceThreshold: defaultConfidenceThreshold,
			MaxParallelBatches:  defaultMaxParallelBatches,
			CacheEnabled:        true,
			Fingerprint:         defaultFingerprintMode,
		},
		Classifier: Classifier{
			BaseURL:        defaultClassifierBaseURL,
			Model:          defaultClassifierModel,
			Referer:        defaultClassifierReferer,
			Title:          defaultClassifierTitle,
			TimeoutSeconds: defaultClassifierTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

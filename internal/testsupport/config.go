package testsupport

import (
	"path/filepath"
	"testing"

	"curator/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Classifier.APIKey = "test"
	cfg.Classifier.Model = "test/model"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithConfidenceThreshold overrides the suggestion confidence threshold.
func WithConfidenceThreshold(threshold float64) ConfigOption {
	return func(c *config.Config) {
		c.Suggestions.ConfidenceThreshold = threshold
	}
}

// WithFolderConflictPolicy overrides the folder conflict policy.
func WithFolderConflictPolicy(policy string) ConfigOption {
	return func(c *config.Config) {
		c.Organize.OnFolderConflict = policy
	}
}

// WithBatchSize overrides the suggestion batch size.
func WithBatchSize(size int) ConfigOption {
	return func(c *config.Config) {
		c.Suggestions.BatchSize = size
	}
}

package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOrganize()
	c.normalizeSuggestions()
	c.normalizeClassifiers()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOrganize() {
	c.Organize.OnFolderConflict = strings.ToLower(strings.TrimSpace(c.Organize.OnFolderConflict))
	if c.Organize.OnFolderConflict == "" {
		c.Organize.OnFolderConflict = defaultOnFolderConflict
	}
}

func (c *Config) normalizeSuggestions() {
	if c.Suggestions.BatchSize <= 0 {
		c.Suggestions.BatchSize = defaultBatchSize
	}
	if c.Suggestions.MaxParallelBatches <= 0 {
		c.Suggestions.MaxParallelBatches = defaultMaxParallelBatches
	}
	c.Suggestions.Fingerprint = strings.ToLower(strings.TrimSpace(c.Suggestions.Fingerprint))
	if c.Suggestions.Fingerprint == "" {
		c.Suggestions.Fingerprint = defaultFingerprintMode
	}
}

func (c *Config) normalizeClassifiers() {
	normalizeClassifier(&c.Classifier)
	if c.Classifier.APIKey == "" {
		if value, ok := os.LookupEnv("CURATOR_API_KEY"); ok {
			c.Classifier.APIKey = strings.TrimSpace(value)
		}
	}
	for i := range c.Fallbacks {
		normalizeClassifier(&c.Fallbacks[i])
	}
}

func normalizeClassifier(cl *Classifier) {
	cl.Name = strings.TrimSpace(cl.Name)
	cl.APIKey = strings.TrimSpace(cl.APIKey)
	cl.BaseURL = strings.TrimSpace(cl.BaseURL)
	cl.Model = strings.TrimSpace(cl.Model)
	cl.Referer = strings.TrimSpace(cl.Referer)
	cl.Title = strings.TrimSpace(cl.Title)
	if cl.BaseURL == "" {
		cl.BaseURL = defaultClassifierBaseURL
	}
	if cl.TimeoutSeconds <= 0 {
		cl.TimeoutSeconds = defaultClassifierTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

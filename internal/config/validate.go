package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOrganize(); err != nil {
		return err
	}
	if err := c.validateSuggestions(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOrganize() error {
	switch c.Organize.OnFolderConflict {
	case "merge", "rename":
		return nil
	default:
		return fmt.Errorf("organize.on_folder_conflict must be \"merge\" or \"rename\", got %q", c.Organize.OnFolderConflict)
	}
}

func (c *Config) validateSuggestions() error {
	if c.Suggestions.ConfidenceThreshold < 0 || c.Suggestions.ConfidenceThreshold > 1 {
		return errors.New("suggestions.confidence_threshold must be between 0 and 1")
	}
	if c.Suggestions.BatchSize > 100 {
		return errors.New("suggestions.batch_size must be 100 or less")
	}
	if c.Suggestions.MaxParallelBatches > 8 {
		return errors.New("suggestions.max_parallel_batches must be 8 or less")
	}
	switch c.Suggestions.Fingerprint {
	case "stat", "content":
	default:
		return fmt.Errorf("suggestions.fingerprint must be \"stat\" or \"content\", got %q", c.Suggestions.Fingerprint)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

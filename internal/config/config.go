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
	LogDir   string `toml:"log_dir"`
	CacheDir string `toml:"cache_dir"`
}

// Organize contains policies applied while planning and executing moves.
type Organize struct {
	// OnFolderConflict decides what happens when a folder move targets an
	// existing directory: "merge" moves the children into it, "rename"
	// allocates a suffixed sibling. Default: "merge".
	OnFolderConflict   string `toml:"on_folder_conflict"`
	PreserveTimestamps bool   `toml:"preserve_timestamps"`
}

// Suggestions contains configuration for the AI suggestion pipeline.
type Suggestions struct {
	BatchSize           int     `toml:"batch_size"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	MaxParallelBatches  int     `toml:"max_parallel_batches"`
	CacheEnabled        bool    `toml:"cache_enabled"`
	// Fingerprint selects how cache keys are derived: "stat" (path, size,
	// mtime) or "content" (sha256 of the file body).
	Fingerprint string `toml:"fingerprint"`
}

// Classifier contains connection settings for one classification backend.
type Classifier struct {
	Name           string `toml:"name"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Curator.
//
// Configuration sections by subsystem:
//   - Paths: log and cache directories
//   - Organize: conflict policies for planning and execution
//   - Suggestions: batching, confidence threshold, cache fingerprinting
//   - Classifier: primary classification backend plus ordered fallbacks
//   - Logging: log format and level
type Config struct {
	Paths       Paths        `toml:"paths"`
	Organize    Organize     `toml:"organize"`
	Suggestions Suggestions  `toml:"suggestions"`
	Classifier  Classifier   `toml:"classifier"`
	Fallbacks   []Classifier `toml:"fallback"`
	Logging     Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/curator/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. A missing file yields defaults.
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

	defaultPath, err := expandPath("~/.config/curator/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("curator.toml")
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

// EnsureDirectories creates the directories Curator needs before a run.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.CacheDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TransactionLogDir returns the directory transaction logs are written to.
func (c *Config) TransactionLogDir() string {
	return filepath.Join(c.Paths.LogDir, "transactions")
}

// SuggestionCachePath returns the SQLite database path for the suggestion cache.
func (c *Config) SuggestionCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "suggestions.db")
}

// LockPath returns the lock file guarding executor and rollback runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "curator.lock")
}

// ClassifierChain returns the primary classifier followed by its fallbacks,
// with empty entries dropped.
func (c *Config) ClassifierChain() []Classifier {
	chain := make([]Classifier, 0, 1+len(c.Fallbacks))
	if strings.TrimSpace(c.Classifier.Model) != "" || strings.TrimSpace(c.Classifier.APIKey) != "" {
		chain = append(chain, c.Classifier)
	}
	for _, fb := range c.Fallbacks {
		if strings.TrimSpace(fb.Model) == "" && strings.TrimSpace(fb.APIKey) == "" {
			continue
		}
		chain = append(chain, fb)
	}
	return chain
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
func CreateSample(path string) (string, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return expanded, fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return "", fmt.Errorf("write sample config: %w", err)
	}
	return expanded, nil
}

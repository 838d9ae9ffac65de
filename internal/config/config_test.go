package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Suggestions.ConfidenceThreshold != 0.6 {
		t.Errorf("confidence threshold default: got %v, want 0.6", cfg.Suggestions.ConfidenceThreshold)
	}
	if cfg.Organize.OnFolderConflict != "merge" {
		t.Errorf("on_folder_conflict default: got %q, want merge", cfg.Organize.OnFolderConflict)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("Load should report the config file as absent")
	}
	if cfg.Suggestions.BatchSize != defaultBatchSize {
		t.Errorf("batch size: got %d, want %d", cfg.Suggestions.BatchSize, defaultBatchSize)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		`cache_dir = "` + filepath.Join(dir, "cache") + `"`,
		"[organize]",
		`on_folder_conflict = "RENAME"`,
		"[suggestions]",
		"batch_size = 5",
		"confidence_threshold = 0.75",
		"[classifier]",
		`api_key = "  secret  "`,
		`model = "test/model"`,
		"[[fallback]]",
		`name = "local"`,
		`model = "llama"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("Load should report the config file as present")
	}
	if resolved != path {
		t.Errorf("resolved path: got %q, want %q", resolved, path)
	}
	if cfg.Organize.OnFolderConflict != "rename" {
		t.Errorf("on_folder_conflict: got %q, want rename", cfg.Organize.OnFolderConflict)
	}
	if cfg.Classifier.APIKey != "secret" {
		t.Errorf("api key not trimmed: %q", cfg.Classifier.APIKey)
	}
	chain := cfg.ClassifierChain()
	if len(chain) != 2 {
		t.Fatalf("classifier chain length: got %d, want 2", len(chain))
	}
	if chain[1].Name != "local" {
		t.Errorf("fallback name: got %q, want local", chain[1].Name)
	}
	if chain[1].TimeoutSeconds != defaultClassifierTimeout {
		t.Errorf("fallback timeout default: got %d, want %d", chain[1].TimeoutSeconds, defaultClassifierTimeout)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad conflict policy", func(c *Config) { c.Organize.OnFolderConflict = "overwrite" }},
		{"threshold above one", func(c *Config) { c.Suggestions.ConfidenceThreshold = 1.5 }},
		{"negative threshold", func(c *Config) { c.Suggestions.ConfidenceThreshold = -0.1 }},
		{"bad fingerprint mode", func(c *Config) { c.Suggestions.Fingerprint = "mtime" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			if err := cfg.normalize(); err != nil {
				t.Fatalf("normalize: %v", err)
			}
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate should have rejected the config")
			}
		})
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	written, err := CreateSample(path)
	if err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if written != path {
		t.Errorf("written path: got %q, want %q", written, path)
	}
	if _, _, _, err := Load(path); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
	if _, err := CreateSample(path); err == nil {
		t.Error("CreateSample should refuse to overwrite an existing file")
	}
}

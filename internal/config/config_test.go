package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.BatchSize != DefaultBatchSize {
		t.Errorf("BatchSize = %d, want %d", cfg.BatchSize, DefaultBatchSize)
	}
	if cfg.BatchPause != DefaultBatchPause {
		t.Errorf("BatchPause = %v, want %v", cfg.BatchPause, DefaultBatchPause)
	}
	if cfg.ListingURL == "" {
		t.Error("default config should carry a listing URL")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }},
		{"negative pause", func(c *Config) { c.BatchPause = -time.Second }},
		{"zero concurrency", func(c *Config) { c.MaxConcurrent = 0 }},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
		{"max delay below base", func(c *Config) { c.MaxDelay = c.BaseDelay / 2 }},
		{"no target source", func(c *Config) { c.TargetsFile = ""; c.ListingURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestLoad_FileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kinofetch.yaml")
	content := `
batch_size: 5
batch_pause: 500ms
max_concurrent: 3
redis_addr: "localhost:6379"
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.BatchSize != 5 {
		t.Errorf("BatchSize = %d, want 5", cfg.BatchSize)
	}
	if cfg.BatchPause != 500*time.Millisecond {
		t.Errorf("BatchPause = %v, want 500ms", cfg.BatchPause)
	}
	if cfg.MaxConcurrent != 3 {
		t.Errorf("MaxConcurrent = %d, want 3", cfg.MaxConcurrent)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q, want localhost:6379", cfg.RedisAddr)
	}
	// Untouched values keep their defaults.
	if cfg.MaxRetries != DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want default %d", cfg.MaxRetries, DefaultMaxRetries)
	}
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() with an explicit missing file should fail")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KINOFETCH_BATCH_SIZE", "7")
	t.Setenv("KINOFETCH_BATCH_PAUSE", "2s")
	t.Setenv("KINOFETCH_REDIS_ADDR", "redis:6379")

	path := filepath.Join(t.TempDir(), "kinofetch.yaml")
	if err := os.WriteFile(path, []byte("batch_size: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Env wins over the file.
	if cfg.BatchSize != 7 {
		t.Errorf("BatchSize = %d, want env override 7", cfg.BatchSize)
	}
	if cfg.BatchPause != 2*time.Second {
		t.Errorf("BatchPause = %v, want 2s", cfg.BatchPause)
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Errorf("RedisAddr = %q, want redis:6379", cfg.RedisAddr)
	}
}

func TestLoad_InvalidFileValuesRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kinofetch.yaml")
	if err := os.WriteFile(path, []byte("batch_size: -2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() with negative batch size should fail validation")
	}
}

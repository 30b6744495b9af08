// Package config holds the runtime configuration for the kinofetch binary.
// Values come from an optional YAML file with environment variable fallbacks;
// the zero file is valid and yields the defaults below.
package config

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	// DefaultBatchSize keeps batches small enough that one bad batch costs
	// little wall time.
	DefaultBatchSize = 20

	// DefaultBatchPause is the breather between batches.
	DefaultBatchPause = 1 * time.Second

	// DefaultMaxConcurrent bounds in-flight requests inside a batch.
	DefaultMaxConcurrent = 10

	// DefaultMaxRetries is the retry budget per target on top of the first
	// attempt.
	DefaultMaxRetries = 3

	// DefaultBaseDelay and DefaultMaxDelay bound the adaptive pacing window.
	DefaultBaseDelay = 100 * time.Millisecond
	DefaultMaxDelay  = 2 * time.Second

	// DefaultConnectTimeout, DefaultReadTimeout and DefaultTotalTimeout bound
	// each HTTP request.
	DefaultConnectTimeout = 15 * time.Second
	DefaultReadTimeout    = 45 * time.Second
	DefaultTotalTimeout   = 60 * time.Second

	// DefaultCacheTTL is how long fetched pages stay in Redis.
	DefaultCacheTTL = 1 * time.Hour

	// DefaultListingURL is the film catalog page used for discovery.
	DefaultListingURL = "https://ekinobilet.fond-kino.ru/films/"
)

// Config holds all options for a kinofetch run. A single flat struct keeps
// YAML files and env overrides easy to reason about.
type Config struct {
	// TargetsFile is a newline-delimited URL list. When set it replaces
	// listing discovery.
	TargetsFile string

	// ListingURL is the catalog page crawled for film detail links when no
	// targets file is given.
	ListingURL string

	// BatchSize is the number of targets per batch.
	BatchSize int

	// BatchPause is the pause between consecutive batches.
	BatchPause time.Duration

	// MaxConcurrent bounds parallel fetches within a batch.
	MaxConcurrent int

	// MaxRetries is the per-target retry budget.
	MaxRetries int

	// BaseDelay and MaxDelay bound the adaptive pacing delay.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// ConnectTimeout, ReadTimeout and TotalTimeout bound each HTTP request.
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	TotalTimeout   time.Duration

	// RedisAddr enables the Redis page cache when non-empty.
	RedisAddr string

	// CacheTTL is how long cached pages stay valid.
	CacheTTL time.Duration

	// OutputDir is where the CSV and report files land.
	OutputDir string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// LogPretty switches from JSON to console log output.
	LogPretty bool
}

// Default returns the configuration used when no file or env overrides are
// present.
func Default() Config {
	return Config{
		ListingURL:     DefaultListingURL,
		BatchSize:      DefaultBatchSize,
		BatchPause:     DefaultBatchPause,
		MaxConcurrent:  DefaultMaxConcurrent,
		MaxRetries:     DefaultMaxRetries,
		BaseDelay:      DefaultBaseDelay,
		MaxDelay:       DefaultMaxDelay,
		ConnectTimeout: DefaultConnectTimeout,
		ReadTimeout:    DefaultReadTimeout,
		TotalTimeout:   DefaultTotalTimeout,
		CacheTTL:       DefaultCacheTTL,
		OutputDir:      ".",
		LogLevel:       "info",
	}
}

// Validate checks the configuration for values the engine would reject.
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive (got %d)", c.BatchSize)
	}
	if c.BatchPause < 0 {
		return fmt.Errorf("batch_pause cannot be negative (got %s)", c.BatchPause)
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("max_concurrent must be positive (got %d)", c.MaxConcurrent)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative (got %d)", c.MaxRetries)
	}
	if c.BaseDelay < 0 {
		return fmt.Errorf("base_delay cannot be negative (got %s)", c.BaseDelay)
	}
	if c.MaxDelay < c.BaseDelay {
		return fmt.Errorf("max_delay %s is below base_delay %s", c.MaxDelay, c.BaseDelay)
	}
	if c.TargetsFile == "" && c.ListingURL == "" {
		return fmt.Errorf("either targets_file or listing_url must be set")
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config file name searched for in the working
// directory.
const DefaultConfigFile = "kinofetch.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Load builds the effective configuration: defaults, overlaid by the YAML
// file at path (skipped when path is empty and the default file is absent),
// overlaid by KINOFETCH_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	if err := loadFile(&cfg, path); err != nil {
		if !errors.Is(err, ErrConfigNotFound) || explicit {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// fileConfig mirrors Config for YAML decoding. Durations are strings in the
// file ("500ms", "2s") since yaml.v3 has no native time.Duration support.
type fileConfig struct {
	TargetsFile    *string `yaml:"targets_file"`
	ListingURL     *string `yaml:"listing_url"`
	BatchSize      *int    `yaml:"batch_size"`
	BatchPause     *string `yaml:"batch_pause"`
	MaxConcurrent  *int    `yaml:"max_concurrent"`
	MaxRetries     *int    `yaml:"max_retries"`
	BaseDelay      *string `yaml:"base_delay"`
	MaxDelay       *string `yaml:"max_delay"`
	ConnectTimeout *string `yaml:"connect_timeout"`
	ReadTimeout    *string `yaml:"read_timeout"`
	TotalTimeout   *string `yaml:"total_timeout"`
	RedisAddr      *string `yaml:"redis_addr"`
	CacheTTL       *string `yaml:"cache_ttl"`
	OutputDir      *string `yaml:"output_dir"`
	LogLevel       *string `yaml:"log_level"`
	LogPretty      *bool   `yaml:"log_pretty"`
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrConfigNotFound
		}
		return fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	overlayString(&cfg.TargetsFile, fc.TargetsFile)
	overlayString(&cfg.ListingURL, fc.ListingURL)
	overlayInt(&cfg.BatchSize, fc.BatchSize)
	overlayInt(&cfg.MaxConcurrent, fc.MaxConcurrent)
	overlayInt(&cfg.MaxRetries, fc.MaxRetries)
	overlayString(&cfg.RedisAddr, fc.RedisAddr)
	overlayString(&cfg.OutputDir, fc.OutputDir)
	overlayString(&cfg.LogLevel, fc.LogLevel)
	if fc.LogPretty != nil {
		cfg.LogPretty = *fc.LogPretty
	}

	for _, d := range []struct {
		dst *time.Duration
		src *string
		key string
	}{
		{&cfg.BatchPause, fc.BatchPause, "batch_pause"},
		{&cfg.BaseDelay, fc.BaseDelay, "base_delay"},
		{&cfg.MaxDelay, fc.MaxDelay, "max_delay"},
		{&cfg.ConnectTimeout, fc.ConnectTimeout, "connect_timeout"},
		{&cfg.ReadTimeout, fc.ReadTimeout, "read_timeout"},
		{&cfg.TotalTimeout, fc.TotalTimeout, "total_timeout"},
		{&cfg.CacheTTL, fc.CacheTTL, "cache_ttl"},
	} {
		if d.src == nil {
			continue
		}
		parsed, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("parse config %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	return nil
}

func overlayString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func overlayInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

// applyEnv overlays KINOFETCH_* environment variables. Unparseable values
// are ignored rather than failing the run.
func applyEnv(cfg *Config) {
	setString(&cfg.TargetsFile, "KINOFETCH_TARGETS_FILE")
	setString(&cfg.ListingURL, "KINOFETCH_LISTING_URL")
	setString(&cfg.RedisAddr, "KINOFETCH_REDIS_ADDR")
	setString(&cfg.OutputDir, "KINOFETCH_OUTPUT_DIR")
	setString(&cfg.LogLevel, "KINOFETCH_LOG_LEVEL")

	setInt(&cfg.BatchSize, "KINOFETCH_BATCH_SIZE")
	setInt(&cfg.MaxConcurrent, "KINOFETCH_MAX_CONCURRENT")
	setInt(&cfg.MaxRetries, "KINOFETCH_MAX_RETRIES")

	setDuration(&cfg.BatchPause, "KINOFETCH_BATCH_PAUSE")
	setDuration(&cfg.CacheTTL, "KINOFETCH_CACHE_TTL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

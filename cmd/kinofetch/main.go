package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kinostat/kinofetch/internal/config"
	"github.com/kinostat/kinofetch/pkg/discover"
	"github.com/kinostat/kinofetch/pkg/engine"
	"github.com/kinostat/kinofetch/pkg/export"
	"github.com/kinostat/kinofetch/pkg/extract"
	"github.com/kinostat/kinofetch/pkg/httpfetch"
	"github.com/kinostat/kinofetch/pkg/logging"
	"github.com/kinostat/kinofetch/pkg/pagecache"
	"github.com/kinostat/kinofetch/pkg/ratelimit"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Run failed")
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional Redis page cache.
	var cache *pagecache.Manager
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		defer redisClient.Close()
		cache = pagecache.NewManager(redisClient, cfg.CacheTTL)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("Page cache enabled")
	}

	fetchClient, err := httpfetch.New(httpfetch.Config{
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		TotalTimeout:   cfg.TotalTimeout,
		MaxConcurrent:  cfg.MaxConcurrent,
		Cache:          cache,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("create fetch client: %w", err)
	}
	defer fetchClient.Close()

	targets, err := discoverTargets(ctx, cfg, fetchClient, logger)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		logger.Warn().Msg("No targets to fetch")
		return nil
	}
	logger.Info().Int("targets", len(targets)).Msg("Starting fetch run")

	limiter, err := ratelimit.New(ratelimit.Config{
		BaseDelay: cfg.BaseDelay,
		MaxDelay:  cfg.MaxDelay,
	}, logger)
	if err != nil {
		return fmt.Errorf("create rate limiter: %w", err)
	}

	eng, err := engine.New(fetchClient, extract.NewFilmExtractor(), engine.Config{
		BatchSize:     cfg.BatchSize,
		BatchPause:    cfg.BatchPause,
		MaxConcurrent: cfg.MaxConcurrent,
		MaxRetries:    cfg.MaxRetries,
		Limiter:       limiter,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	progress := func(completed, total int, batch []engine.Result) {
		succeeded := 0
		for _, r := range batch {
			if r.Successful() {
				succeeded++
			}
		}
		logger.Info().
			Int("completed", completed).
			Int("total", total).
			Int("batch_ok", succeeded).
			Int("batch_size", len(batch)).
			Msg("Progress")
	}

	results, err := eng.Run(ctx, targets, progress)
	if err != nil {
		return fmt.Errorf("run engine: %w", err)
	}

	stats := eng.Stats(results)
	logger.Info().
		Int("successful", stats.Successful).
		Int("failed", stats.Failed).
		Float64("success_rate", stats.SuccessRate).
		Float64("avg_attempts", stats.AverageAttempts).
		Dur("elapsed", stats.TotalElapsed).
		Msg("Run complete")

	return writeArtifacts(cfg.OutputDir, results, stats, logger)
}

func discoverTargets(ctx context.Context, cfg config.Config, client engine.FetchClient, logger zerolog.Logger) ([]string, error) {
	var source discover.Source
	if cfg.TargetsFile != "" {
		source = discover.FileSource{Path: cfg.TargetsFile}
	} else {
		source = discover.ListingSource{
			Client:     client,
			ListingURL: cfg.ListingURL,
			Logger:     logger,
		}
	}

	targets, err := source.Targets(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover targets: %w", err)
	}
	return targets, nil
}

// writeArtifacts saves the CSV and the text report with a shared timestamp.
func writeArtifacts(dir string, results []engine.Result, stats engine.RunStats, logger zerolog.Logger) error {
	now := time.Now()
	stamp := now.Format("20060102_150405")

	csvPath := filepath.Join(dir, fmt.Sprintf("film_results_%s.csv", stamp))
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := export.WriteCSV(csvFile, results, now); err != nil {
		csvFile.Close()
		return err
	}
	if err := csvFile.Close(); err != nil {
		return fmt.Errorf("close csv: %w", err)
	}

	reportPath := filepath.Join(dir, fmt.Sprintf("film_report_%s.txt", stamp))
	reportFile, err := os.Create(reportPath)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := export.WriteReport(reportFile, stats); err != nil {
		reportFile.Close()
		return err
	}
	if err := reportFile.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}

	logger.Info().
		Str("csv", csvPath).
		Str("report", reportPath).
		Msg("Artifacts written")
	return nil
}

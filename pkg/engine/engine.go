// Package engine implements the resilient batch-fetch core: a per-target
// retry state machine with outcome classification, a batch orchestrator that
// bounds concurrency and paces load, and a statistics projection over the
// final results. The fetch client and the content extractor are injected
// collaborators so the engine can be exercised without network access.
package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kinostat/kinofetch/pkg/ratelimit"
)

// Prometheus metrics for fetch processing.
var (
	fetchOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinofetch_attempt_outcomes_total",
		Help: "Fetch attempt outcomes by class",
	}, []string{"outcome"})

	fetchAttemptDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kinofetch_attempt_duration_seconds",
		Help:    "Duration of accepted fetch attempts including extraction",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	fetchRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kinofetch_retries_total",
		Help: "Total number of retry attempts across all targets",
	})

	fetchExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kinofetch_retry_exhausted_total",
		Help: "Targets that exhausted the full retry budget",
	})

	batchesProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kinofetch_batches_processed_total",
		Help: "Completed batches",
	})
)

// Response is the raw outcome of a fetch: HTTP status and body.
type Response struct {
	StatusCode int
	Body       []byte
}

// FetchClient retrieves a single target. Implementations classify transport
// failures by wrapping ErrTimeout or ErrTransport; any other error is treated
// as unclassified.
type FetchClient interface {
	Fetch(ctx context.Context, target string) (*Response, error)
}

// Extractor turns a fetched body into named fields and defines which of them
// count toward success. Extract must not panic on malformed input; an
// extraction problem is reported through the error return.
type Extractor interface {
	Extract(target string, body []byte) (Fields, error)
	KeyFields() []string
}

// ProgressFunc is invoked once per completed batch, after all of the batch's
// results are final and before the inter-batch pause. It runs to completion
// before the next batch starts.
type ProgressFunc func(completed, total int, batch []Result)

// Config holds the engine configuration. All four knobs are required to be in
// range; New fails fast on anything else.
type Config struct {
	// BatchSize is the number of targets per batch.
	BatchSize int

	// BatchPause is the mandatory pause between batches.
	BatchPause time.Duration

	// MaxConcurrent caps how many attempts may be in flight within a batch.
	MaxConcurrent int

	// MaxRetries is the number of retries per target; each target gets
	// MaxRetries+1 attempts before terminal failure.
	MaxRetries int

	// Limiter is the shared pacing gate. Created with defaults when nil.
	Limiter *ratelimit.Limiter

	// Logger for engine events. Defaults to a disabled logger.
	Logger zerolog.Logger
}

// DefaultConfig returns the reference configuration: small batches with
// mandatory pauses and modest concurrency keep the target server friendly.
func DefaultConfig() Config {
	return Config{
		BatchSize:     20,
		BatchPause:    time.Second,
		MaxConcurrent: 10,
		MaxRetries:    3,
	}
}

// Engine runs the batch-fetch pipeline. One Engine serves one run at a time;
// the limiter and the run counters are shared across all concurrent attempts
// of that run.
type Engine struct {
	client    FetchClient
	extractor Extractor
	cfg       Config
	limiter   *ratelimit.Limiter
	logger    zerolog.Logger

	// Run-wide counters, reset at the start of each run.
	totalRetries atomic.Int64
	batches      int
	elapsed      time.Duration
}

// New validates the configuration and creates an engine.
func New(client FetchClient, extractor Extractor, cfg Config) (*Engine, error) {
	if client == nil {
		return nil, fmt.Errorf("fetch client is required")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch_size must be > 0 (got %d)", cfg.BatchSize)
	}
	if cfg.BatchPause < 0 {
		return nil, fmt.Errorf("batch_pause must be >= 0 (got %v)", cfg.BatchPause)
	}
	if cfg.MaxConcurrent <= 0 {
		return nil, fmt.Errorf("max_concurrent must be > 0 (got %d)", cfg.MaxConcurrent)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	logger := cfg.Logger
	limiter := cfg.Limiter
	if limiter == nil {
		var err error
		limiter, err = ratelimit.New(ratelimit.DefaultConfig(), logger)
		if err != nil {
			return nil, fmt.Errorf("create limiter: %w", err)
		}
	}

	return &Engine{
		client:    client,
		extractor: extractor,
		cfg:       cfg,
		limiter:   limiter,
		logger:    logger,
	}, nil
}

// Run fetches all targets in input order, batch by batch. Targets are split
// into consecutive chunks of BatchSize; within a chunk at most
// min(MaxConcurrent, len(chunk)) attempts run concurrently and the whole
// chunk finishes before the next one starts. The returned slice preserves
// input order: result[i] corresponds to targets[i].
//
// Cancellation is observed between batches and inside waits; attempts already
// in flight finalize before Run returns, so a cancelled run still yields one
// result per started target.
func (e *Engine) Run(ctx context.Context, targets []string, progress ProgressFunc) ([]Result, error) {
	e.totalRetries.Store(0)
	e.batches = 0
	e.elapsed = 0

	total := len(targets)
	totalBatches := (total + e.cfg.BatchSize - 1) / e.cfg.BatchSize

	e.logger.Info().
		Int("targets", total).
		Int("batch_size", e.cfg.BatchSize).
		Dur("batch_pause", e.cfg.BatchPause).
		Int("max_concurrent", e.cfg.MaxConcurrent).
		Msg("Starting batch fetch")

	start := time.Now()
	results := make([]Result, 0, total)

	for offset := 0; offset < total; offset += e.cfg.BatchSize {
		end := offset + e.cfg.BatchSize
		if end > total {
			end = total
		}
		chunk := targets[offset:end]
		batchNum := offset/e.cfg.BatchSize + 1

		e.logger.Info().
			Int("batch", batchNum).
			Int("total_batches", totalBatches).
			Int("targets", len(chunk)).
			Msg("Processing batch")

		batchResults := e.runBatch(ctx, chunk, batchNum)
		results = append(results, batchResults...)
		e.batches++
		batchesProcessedTotal.Inc()

		successful := 0
		for _, r := range results {
			if r.Successful() {
				successful++
			}
		}
		e.logger.Info().
			Int("batch", batchNum).
			Int("completed", len(results)).
			Int("total", total).
			Int("successful", successful).
			Msg("Batch complete")

		if progress != nil {
			progress(len(results), total, batchResults)
		}

		if err := ctx.Err(); err != nil {
			e.elapsed = time.Since(start)
			return results, fmt.Errorf("run cancelled after batch %d: %w", batchNum, err)
		}

		// Mandatory pause between batches, never after the last one.
		if end < total {
			if err := sleepContext(ctx, e.cfg.BatchPause); err != nil {
				e.elapsed = time.Since(start)
				return results, fmt.Errorf("run cancelled after batch %d: %w", batchNum, err)
			}
		}
	}

	e.elapsed = time.Since(start)

	e.logger.Info().
		Int("targets", total).
		Int("batches", e.batches).
		Dur("elapsed", e.elapsed).
		Msg("Batch fetch complete")

	return results, nil
}

// runBatch executes all attempts of one chunk under the concurrency cap and
// returns results in chunk order. Completion order inside the batch is
// unordered; position is fixed by pre-allocating the slice.
func (e *Engine) runBatch(ctx context.Context, chunk []string, batchNum int) []Result {
	results := make([]Result, len(chunk))

	limit := e.cfg.MaxConcurrent
	if len(chunk) < limit {
		limit = len(chunk)
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for i, target := range chunk {
		i, target := i, target
		g.Go(func() error {
			results[i] = e.fetchTarget(ctx, target, batchNum)
			return nil
		})
	}

	// Attempts never return errors; failures are isolated in their Result.
	_ = g.Wait()

	return results
}

// sleepContext sleeps for d unless the context ends first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Package ratelimit implements adaptive request pacing shared by all
// concurrent fetch attempts. A single Limiter instance gates every request
// of a run and adjusts the minimum inter-request spacing based on recent
// success/failure history, so a struggling server is automatically given
// more room.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for request pacing.
var (
	pacingDelaySeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kinofetch_pacing_delay_seconds",
		Help: "Current minimum inter-request delay enforced by the limiter",
	})

	pacingTightenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kinofetch_pacing_tightened_total",
		Help: "Number of times the pacing delay was increased after a failure",
	})

	pacingRelaxedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kinofetch_pacing_relaxed_total",
		Help: "Number of times the pacing delay was reduced after consecutive successes",
	})
)

// Adaptation factors. Tightening is deliberately stronger than relaxation so
// the limiter backs off quickly and recovers slowly.
const (
	// tightenFactor is applied to the current delay on every recorded failure.
	tightenFactor = 1.5

	// relaxFactor is applied after a run of consecutive successes.
	relaxFactor = 0.8

	// relaxAfterSuccesses is the length of the success run required before
	// the delay is reduced. Relaxing on every success would oscillate.
	relaxAfterSuccesses = 4
)

// Default pacing bounds.
const (
	DefaultBaseDelay = 100 * time.Millisecond
	DefaultMaxDelay  = 2 * time.Second
)

// Config holds the limiter configuration.
type Config struct {
	// BaseDelay is the minimum inter-request spacing under a healthy server.
	BaseDelay time.Duration

	// MaxDelay caps how far the spacing may grow under repeated failures.
	MaxDelay time.Duration
}

// DefaultConfig returns the default pacing configuration.
func DefaultConfig() Config {
	return Config{
		BaseDelay: DefaultBaseDelay,
		MaxDelay:  DefaultMaxDelay,
	}
}

// Limiter paces request starts and adapts the pacing interval to recent
// history. It is shared by every concurrent attempt of a run; all state is
// guarded by a mutex because attempts read-modify-write the current delay
// concurrently.
type Limiter struct {
	mu sync.Mutex

	base    time.Duration
	max     time.Duration
	current time.Duration

	consecutiveSuccesses int
	lastStart            time.Time

	logger zerolog.Logger
}

// New creates a limiter. Zero durations fall back to the defaults.
func New(cfg Config, logger zerolog.Logger) (*Limiter, error) {
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.BaseDelay < 0 {
		return nil, fmt.Errorf("base delay must be >= 0 (got %v)", cfg.BaseDelay)
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		return nil, fmt.Errorf("max delay %v must be >= base delay %v", cfg.MaxDelay, cfg.BaseDelay)
	}

	pacingDelaySeconds.Set(cfg.BaseDelay.Seconds())

	return &Limiter{
		base:    cfg.BaseDelay,
		max:     cfg.MaxDelay,
		current: cfg.BaseDelay,
		logger:  logger,
	}, nil
}

// Wait blocks until at least the current delay has elapsed since the last
// recorded request start, then records a new start time. Every attempt passes
// through this gate before network I/O, so the spacing is global across all
// in-flight attempts, not per attempt.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := time.Now()
		wait := l.current - now.Sub(l.lastStart)
		if wait <= 0 {
			l.lastStart = now
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			// Re-check: another attempt may have claimed the slot meanwhile.
		}
	}
}

// RecordSuccess notes a successful request. After a run of
// relaxAfterSuccesses consecutive successes the delay is reduced toward the
// base and the run counter restarts.
func (l *Limiter) RecordSuccess() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.consecutiveSuccesses++

	if l.consecutiveSuccesses >= relaxAfterSuccesses && l.current > l.base {
		l.current = maxDuration(l.base, time.Duration(float64(l.current)*relaxFactor))
		l.consecutiveSuccesses = 0

		pacingRelaxedTotal.Inc()
		pacingDelaySeconds.Set(l.current.Seconds())

		l.logger.Debug().
			Dur("current_delay", l.current).
			Msg("Reduced pacing delay after consecutive successes")
	}
}

// RecordFailure notes a failed request: the success run is reset and the
// delay grows immediately, capped at the configured maximum.
func (l *Limiter) RecordFailure() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.consecutiveSuccesses = 0
	l.current = minDuration(l.max, time.Duration(float64(l.current)*tightenFactor))

	pacingTightenedTotal.Inc()
	pacingDelaySeconds.Set(l.current.Seconds())

	l.logger.Warn().
		Dur("current_delay", l.current).
		Msg("Increased pacing delay due to failure")
}

// CurrentDelay returns the delay currently enforced between request starts.
func (l *Limiter) CurrentDelay() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// BaseDelay returns the configured lower bound of the pacing delay.
func (l *Limiter) BaseDelay() time.Duration {
	return l.base
}

// MaxDelay returns the configured upper bound of the pacing delay.
func (l *Limiter) MaxDelay() time.Duration {
	return l.max
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

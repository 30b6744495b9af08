package engine

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Fixed post-outcome delays. The backoff before the next attempt comes on top
// of these; a rate-limited server gets the longest breather. Vars rather than
// consts so tests can shrink them.
var (
	rateLimitedDelay = 5 * time.Second
	serverErrorDelay = 2 * time.Second
	clientErrorDelay = 1 * time.Second
)

// Backoff shape for retry attempts.
const (
	backoffBase      = 1.5
	backoffJitterMin = 200 * time.Millisecond
	backoffJitterMax = 800 * time.Millisecond
	backoffCeiling   = 8 * time.Second
)

// retryBackoff returns the sleep before the given retry attempt (1-based):
// exponential with bounded jitter and a hard ceiling.
var retryBackoff = func(attempt int) time.Duration {
	jitter := backoffJitterMin +
		time.Duration(rand.Float64()*float64(backoffJitterMax-backoffJitterMin))
	d := time.Duration(math.Pow(backoffBase, float64(attempt))*float64(time.Second)) + jitter
	if d > backoffCeiling {
		d = backoffCeiling
	}
	return d
}

// fetchTarget runs the full retry state machine for one target and always
// produces a terminal Result; no failure escapes past this function.
//
// Budget is MaxRetries+1 attempts. A 200 response whose extraction yields a
// key field terminates immediately with success. All other outcomes retry
// with an outcome-specific policy until the budget is spent.
func (e *Engine) fetchTarget(ctx context.Context, target string, batchNum int) Result {
	b := newResultBuilder(target, batchNum, e.extractor.KeyFields())
	maxAttempts := e.cfg.MaxRetries + 1

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := retryBackoff(attempt)
			e.totalRetries.Add(1)
			fetchRetriesTotal.Inc()

			e.logger.Info().
				Str("target", target).
				Int("attempt", attempt).
				Int("max_retries", e.cfg.MaxRetries).
				Dur("backoff", backoff).
				Msg("Retrying target after backoff")

			if err := sleepContext(ctx, backoff); err != nil {
				return b.cancelled(attempt+1, err)
			}
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return b.cancelled(attempt+1, err)
		}

		start := time.Now()
		resp, err := e.client.Fetch(ctx, target)

		outcome := classify(resp, err)
		if outcome == OutcomeAccepted {
			fields, extractErr := e.extractor.Extract(target, resp.Body)
			elapsed := time.Since(start)
			b.observe(fields, elapsed)

			if extractErr == nil && fields.HasAny(e.extractor.KeyFields()...) {
				e.limiter.RecordSuccess()
				fetchOutcomesTotal.WithLabelValues(string(OutcomeAccepted)).Inc()
				fetchAttemptDuration.Observe(elapsed.Seconds())
				return b.success(attempt + 1)
			}

			// Accepted but nothing meaningful extracted: retry without any
			// penalty. Intentionally records no limiter failure and adds no
			// extra delay beyond the next attempt's backoff.
			outcome = OutcomeExtractionFailure
			e.logger.Warn().
				Str("target", target).
				Int("attempt", attempt+1).
				AnErr("extract_error", extractErr).
				Msg("No meaningful data extracted")
		}

		fetchOutcomesTotal.WithLabelValues(string(outcome)).Inc()

		switch outcome {
		case OutcomeExtractionFailure:
			// Handled above.

		case OutcomeRateLimited:
			e.logger.Warn().
				Str("target", target).
				Int("attempt", attempt+1).
				Msg("Rate limited, increasing delays")
			e.limiter.RecordFailure()
			if err := sleepContext(ctx, rateLimitedDelay); err != nil {
				return b.cancelled(attempt+1, err)
			}

		case OutcomeServerError:
			e.logger.Warn().
				Str("target", target).
				Int("attempt", attempt+1).
				Int("status", resp.StatusCode).
				Msg("Server error")
			if err := sleepContext(ctx, serverErrorDelay); err != nil {
				return b.cancelled(attempt+1, err)
			}

		case OutcomeUnexpectedStatus:
			e.logger.Warn().
				Str("target", target).
				Int("attempt", attempt+1).
				Int("status", resp.StatusCode).
				Msg("Unexpected status")

		case OutcomeTimeout:
			e.logger.Warn().
				Str("target", target).
				Int("attempt", attempt+1).
				Msg("Request timed out")
			e.limiter.RecordFailure()

		case OutcomeClientError:
			e.logger.Warn().
				Str("target", target).
				Int("attempt", attempt+1).
				Err(err).
				Msg("Transport error")
			e.limiter.RecordFailure()
			if err := sleepContext(ctx, clientErrorDelay); err != nil {
				return b.cancelled(attempt+1, err)
			}

		case OutcomeUnclassified:
			e.logger.Error().
				Str("target", target).
				Int("attempt", attempt+1).
				Err(err).
				Msg("Unclassified fetch error")
		}
	}

	// Budget exhausted.
	e.limiter.RecordFailure()
	fetchExhaustedTotal.Inc()

	e.logger.Error().
		Str("target", target).
		Int("attempts", maxAttempts).
		Msg("Retry budget exhausted")

	return b.exhausted(maxAttempts)
}

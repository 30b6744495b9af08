package engine

import "time"

// FailedTarget pairs a terminally failed target with its error message.
type FailedTarget struct {
	Target string
	Reason string
}

// RunStats is a read-only reliability and performance projection over one
// run's result sequence. It has no identity of its own and can be recomputed
// at any time.
type RunStats struct {
	TotalTargets int
	Successful   int
	Failed       int

	// SuccessRate and RetryRate are percentages in [0, 100]. RetryRate is
	// the share of targets that were recovered by retrying: fetched
	// successfully but only after more than one attempt. Targets that
	// failed outright are counted by FailedTargets, not here.
	SuccessRate float64
	RetryRate   float64

	// AverageAttempts is the mean attempt count across all targets.
	AverageAttempts float64

	// TotalElapsed is the wall-clock duration of the run.
	TotalElapsed time.Duration

	// TargetsPerSecond is overall throughput: targets / elapsed.
	TargetsPerSecond float64

	// AverageFetchTime is the mean Elapsed over successful results only.
	AverageFetchTime time.Duration

	BatchesProcessed int

	FailedTargets []FailedTarget

	// TargetsWithRetries counts targets with more than one attempt;
	// TotalRetries is the sum of (attempts - 1) over all targets;
	// MaxAttempts is the largest attempt count seen.
	TargetsWithRetries int
	TotalRetries       int
	MaxAttempts        int
}

// Stats computes the run statistics for a result sequence, combining it with
// the engine's own timing counters from the last Run. Pure: no engine state
// is modified and repeated calls return the same projection.
func (e *Engine) Stats(results []Result) RunStats {
	stats := RunStats{
		TotalTargets:     len(results),
		TotalElapsed:     e.elapsed,
		BatchesProcessed: e.batches,
	}

	if len(results) == 0 {
		return stats
	}

	var attemptsSum int
	var recovered int
	var successElapsed time.Duration

	for _, r := range results {
		attemptsSum += r.Attempts

		if r.Successful() {
			stats.Successful++
			successElapsed += r.Elapsed
			if r.Attempts > 1 {
				recovered++
			}
		} else {
			stats.Failed++
		}

		if r.Err != nil {
			stats.FailedTargets = append(stats.FailedTargets, FailedTarget{
				Target: r.Target,
				Reason: r.Err.Message,
			})
		}

		if r.Attempts > 1 {
			stats.TargetsWithRetries++
			stats.TotalRetries += r.Attempts - 1
		}
		if r.Attempts > stats.MaxAttempts {
			stats.MaxAttempts = r.Attempts
		}
	}

	n := float64(len(results))
	stats.SuccessRate = float64(stats.Successful) / n * 100
	stats.RetryRate = float64(recovered) / n * 100
	stats.AverageAttempts = float64(attemptsSum) / n

	if stats.TotalElapsed > 0 {
		stats.TargetsPerSecond = n / stats.TotalElapsed.Seconds()
	}
	if stats.Successful > 0 {
		stats.AverageFetchTime = successElapsed / time.Duration(stats.Successful)
	}

	return stats
}

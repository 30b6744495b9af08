package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/kinostat/kinofetch/pkg/engine"
)

// WriteReport renders the run statistics as a plain-text report.
func WriteReport(w io.Writer, stats engine.RunStats) error {
	var b strings.Builder

	b.WriteString("FILM DISCOVERY AND PARSING REPORT\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	b.WriteString("Summary:\n")
	fmt.Fprintf(&b, "  Total URLs: %d\n", stats.TotalTargets)
	fmt.Fprintf(&b, "  Successful: %d (%.1f%%)\n", stats.Successful, stats.SuccessRate)
	fmt.Fprintf(&b, "  Failed: %d\n", stats.Failed)
	fmt.Fprintf(&b, "  Retry rate: %.1f%%\n", stats.RetryRate)
	fmt.Fprintf(&b, "  Average attempts: %.1f\n\n", stats.AverageAttempts)

	b.WriteString("Performance:\n")
	fmt.Fprintf(&b, "  Total time: %.1fs\n", stats.TotalElapsed.Seconds())
	fmt.Fprintf(&b, "  URLs per second: %.2f\n", stats.TargetsPerSecond)
	fmt.Fprintf(&b, "  Average parse time: %.2fs\n", stats.AverageFetchTime.Seconds())
	fmt.Fprintf(&b, "  Batches processed: %d\n\n", stats.BatchesProcessed)

	if len(stats.FailedTargets) > 0 {
		b.WriteString("Failed URLs:\n")
		for _, ft := range stats.FailedTargets {
			fmt.Fprintf(&b, "  - %s (%s)\n", ft.Target, ft.Reason)
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

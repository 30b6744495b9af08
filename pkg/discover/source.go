// Package discover produces the target URL lists the engine works through.
// Sources preserve discovery order and never yield the same URL twice, so
// downstream results line up with what was discovered.
package discover

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// Source yields an ordered, deduplicated list of target URLs.
type Source interface {
	Targets(ctx context.Context) ([]string, error)
}

// StaticSource wraps a fixed URL list. Useful for tests and for callers that
// assemble targets themselves.
type StaticSource []string

// Targets returns the list with duplicates removed, first occurrence wins.
func (s StaticSource) Targets(ctx context.Context) ([]string, error) {
	return dedupe(s), nil
}

// FileSource reads target URLs from a text file, one per line. Blank lines
// and lines starting with # are skipped.
type FileSource struct {
	Path string
}

// Targets reads and deduplicates the URL list from the file.
func (s FileSource) Targets(ctx context.Context) ([]string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open target list: %w", err)
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read target list: %w", err)
	}

	return dedupe(targets), nil
}

// dedupe removes repeated URLs while keeping first-seen order.
func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

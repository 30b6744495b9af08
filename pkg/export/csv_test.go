package export

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/kinostat/kinofetch/pkg/engine"
)

func TestWriteCSV(t *testing.T) {
	now := time.Date(2025, 8, 25, 14, 30, 0, 0, time.UTC)

	results := []engine.Result{
		{
			Target: "https://example.test/films/detail/1",
			Fields: engine.Fields{
				"title":           "Буревестник",
				"total_fees":      "123 456 789",
				"country":         "Россия",
				"start_date":      "28 авг. 2025",
				"year":            "2025",
				"age_restriction": "18+",
			},
			Elapsed:  1500 * time.Millisecond,
			Attempts: 2,
			Batch:    1,
		},
		{
			Target:   "https://example.test/films/detail/2",
			Err:      &engine.TargetError{Kind: "exhausted", Message: "failed after 4 attempts"},
			Attempts: 4,
			Batch:    1,
		},
	}

	var buf strings.Builder
	if err := WriteCSV(&buf, results, now); err != nil {
		t.Fatalf("WriteCSV() failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("reading produced CSV failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("CSV has %d rows, want header + 2", len(records))
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[name] = i
	}

	first := records[1]
	checks := map[string]string{
		"url":              "https://example.test/films/detail/1",
		"title_name":       "Буревестник",
		"total_fees":       "123456789",
		"country":          "Россия",
		"start_date":       "2025-08-28",
		"age":              "18",
		"error":            "",
		"parse_time":       "1.500",
		"attempt_count":    "2",
		"batch_number":     "1",
		"parsing_date":     "2025-08-25",
		"parsing_datetime": "2025-08-25 14:30:00",
	}
	for name, want := range checks {
		idx, ok := col[name]
		if !ok {
			t.Fatalf("CSV missing column %q", name)
		}
		if got := first[idx]; got != want {
			t.Errorf("row 1 column %s = %q, want %q", name, got, want)
		}
	}

	second := records[2]
	if got := second[col["error"]]; got != "failed after 4 attempts" {
		t.Errorf("row 2 error = %q, want exhaustion message", got)
	}
	if got := second[col["total_fees"]]; got != "" {
		t.Errorf("row 2 total_fees = %q, want empty", got)
	}
	if got := second[col["attempt_count"]]; got != "4" {
		t.Errorf("row 2 attempt_count = %q, want 4", got)
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf strings.Builder
	if err := WriteCSV(&buf, nil, time.Now()); err != nil {
		t.Fatalf("WriteCSV() failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("reading produced CSV failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("empty result set should still produce a header row, got %d rows", len(records))
	}
}

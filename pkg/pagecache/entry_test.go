package pagecache

import (
	"strings"
	"testing"
	"time"
)

func TestKey_Deterministic(t *testing.T) {
	url := "https://ekinobilet.fond-kino.ru/films/detail/12345"

	first := Key(url)
	second := Key(url)

	if first != second {
		t.Errorf("Key() not deterministic: %q vs %q", first, second)
	}
	if !strings.HasPrefix(first, keyPrefix) {
		t.Errorf("Key() = %q, want prefix %q", first, keyPrefix)
	}
}

func TestKey_DistinctURLs(t *testing.T) {
	a := Key("https://example.test/films/detail/1")
	b := Key("https://example.test/films/detail/2")

	if a == b {
		t.Errorf("distinct URLs produced the same key %q", a)
	}
}

func TestEntry_Age(t *testing.T) {
	entry := &Entry{FetchedAt: time.Now().Add(-10 * time.Minute)}

	age := entry.Age()
	if age < 9*time.Minute || age > 11*time.Minute {
		t.Errorf("Age() = %v, want approximately 10m", age)
	}
}

package pagecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested page is not cached.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is corrupted.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// DefaultTTL keeps pages for an hour. Box-office figures on the target site
// update at most a few times a day, so an hour is comfortably fresh.
const DefaultTTL = time.Hour

// Manager handles page caching with a Redis backend.
type Manager struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewManager creates a cache manager. A non-positive TTL falls back to
// DefaultTTL.
func NewManager(redisClient *redis.Client, ttl time.Duration) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Get retrieves the cached page for a target URL.
// Returns ErrCacheMiss if the page is not cached.
func (m *Manager) Get(ctx context.Context, target string) (*Entry, error) {
	data, err := m.redis.Get(ctx, Key(target)).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	CacheHits.Inc()
	return &entry, nil
}

// Put stores a fetched page body under the configured TTL. Redis evicts the
// entry itself when the TTL lapses.
func (m *Manager) Put(ctx context.Context, target string, body []byte) error {
	entry := Entry{
		Body:       body,
		StatusCode: http.StatusOK,
		FetchedAt:  time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.redis.Set(ctx, Key(target), data, m.ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Delete removes a cached page.
func (m *Manager) Delete(ctx context.Context, target string) error {
	if err := m.redis.Del(ctx, Key(target)).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

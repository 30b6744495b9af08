// Package pagecache provides a Redis-backed cache for fetched pages. The
// fetch client consults it before network I/O, so repeated runs over
// overlapping target lists do not hit the origin server again within the
// cache TTL.
package pagecache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// keyPrefix namespaces all page cache keys in Redis.
const keyPrefix = "kinofetch:page:"

// Entry is one cached page.
type Entry struct {
	// Body is the page body as fetched.
	Body []byte `json:"body"`

	// StatusCode is the HTTP status of the cached response (always 200;
	// only accepted responses are cached).
	StatusCode int `json:"status_code"`

	// FetchedAt is when the page was retrieved from the origin.
	FetchedAt time.Time `json:"fetched_at"`
}

// Age returns how long ago the entry was fetched.
func (e *Entry) Age() time.Duration {
	return time.Since(e.FetchedAt)
}

// Key derives the deterministic Redis key for a target URL. URLs are hashed
// so arbitrary characters cannot break the key syntax.
func Key(target string) string {
	sum := sha256.Sum256([]byte(target))
	return keyPrefix + hex.EncodeToString(sum[:])
}

package driven

import (
	"context"
	"time"
)

// Cache defines the driven port for a key-value store with absolute expiry.
// A zero expiresAt means the entry never expires. An expiresAt that is not in
// the future stores nothing. Expired entries are reported as missing even if
// the backend has not evicted them yet.
type Cache interface {
	// Get returns the value stored under key. found is false when the key is
	// missing or expired.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value under key, replacing any existing entry.
	Set(ctx context.Context, key string, value []byte, expiresAt time.Time) error

	// SetIfAbsent stores value under key only if no live entry exists, as a
	// single atomic operation. It reports whether the value was stored.
	SetIfAbsent(ctx context.Context, key string, value []byte, expiresAt time.Time) (bool, error)

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

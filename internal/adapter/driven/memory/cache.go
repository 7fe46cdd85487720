// Package memory provides an in-process Cache. Entries are lost on restart,
// so it suits development and single-instance test deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Cache = (*Cache)(nil)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) liveAt(now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}

// Cache is a mutex-guarded map with lazy expiry.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns a copy of the live value stored under key.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.liveAt(c.now()) {
		delete(c.entries, key)
		return nil, false, nil
	}

	return append([]byte(nil), e.value...), true, nil
}

// Set stores value under key.
func (c *Cache) Set(_ context.Context, key string, value []byte, expiresAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{value: append([]byte(nil), value...), expiresAt: expiresAt}
	if !e.liveAt(c.now()) {
		delete(c.entries, key)
		return nil
	}
	c.entries[key] = e
	return nil
}

// SetIfAbsent stores value under key unless a live entry exists.
func (c *Cache) SetIfAbsent(_ context.Context, key string, value []byte, expiresAt time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if existing, ok := c.entries[key]; ok && existing.liveAt(now) {
		return false, nil
	}

	e := entry{value: append([]byte(nil), value...), expiresAt: expiresAt}
	if !e.liveAt(now) {
		return false, nil
	}
	c.entries[key] = e
	return true, nil
}

// Delete removes keys.
func (c *Cache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

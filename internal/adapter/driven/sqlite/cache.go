package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Cache = (*Cache)(nil)

// Cache implements driven.Cache on the cache_entries table. Expiry is stored
// as unix milliseconds; NULL means no expiry.
type Cache struct {
	db  *DB
	now func() time.Time
}

// NewCache creates a Cache on an already-migrated database.
func NewCache(db *DB) *Cache {
	return &Cache{db: db, now: time.Now}
}

// Get returns the live value stored under key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := c.db.Reader.QueryRowContext(ctx,
		`SELECT value FROM cache_entries
		 WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`,
		key, c.now().UnixMilli(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cache entry %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any existing row.
func (c *Cache) Set(ctx context.Context, key string, value []byte, expiresAt time.Time) error {
	exp, live := c.expiry(expiresAt)
	if !live {
		return c.Delete(ctx, key)
	}

	_, err := c.db.Writer.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, exp,
	)
	if err != nil {
		return fmt.Errorf("set cache entry %s: %w", key, err)
	}
	return nil
}

// SetIfAbsent inserts value under key, overwriting only an expired row. The
// conditional upsert runs as one statement on the single writer connection.
func (c *Cache) SetIfAbsent(ctx context.Context, key string, value []byte, expiresAt time.Time) (bool, error) {
	exp, live := c.expiry(expiresAt)
	if !live {
		return false, nil
	}

	res, err := c.db.Writer.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
		 WHERE cache_entries.expires_at IS NOT NULL AND cache_entries.expires_at <= ?`,
		key, value, exp, c.now().UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("set cache entry %s if absent: %w", key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set cache entry %s if absent: %w", key, err)
	}
	return n == 1, nil
}

// Delete removes keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := c.db.Writer.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
			return fmt.Errorf("delete cache entry %s: %w", key, err)
		}
	}
	return nil
}

// PurgeExpired deletes rows whose expiry has passed and returns how many were removed.
func (c *Cache) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := c.db.Writer.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		c.now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("purge expired cache entries: %w", err)
	}
	return res.RowsAffected()
}

// StartSweeper purges expired rows immediately and then every interval. It
// blocks until ctx is cancelled.
func (c *Cache) StartSweeper(ctx context.Context, interval time.Duration) {
	c.sweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("cache sweeper stopped")
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *Cache) sweep(ctx context.Context) {
	n, err := c.PurgeExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("cache sweep failed", "error", err)
		}
		return
	}
	if n > 0 {
		slog.Debug("cache sweep complete", "purged", n)
	}
}

// expiry converts expiresAt to a nullable unix-millisecond column value.
func (c *Cache) expiry(expiresAt time.Time) (sql.NullInt64, bool) {
	if expiresAt.IsZero() {
		return sql.NullInt64{}, true
	}
	if !expiresAt.After(c.now()) {
		return sql.NullInt64{}, false
	}
	return sql.NullInt64{Int64: expiresAt.UnixMilli(), Valid: true}, true
}

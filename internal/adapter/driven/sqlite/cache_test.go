package sqlite

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, now *time.Time) *Cache {
	t.Helper()
	c := NewCache(setupTestDB(t))
	c.now = func() time.Time { return *now }
	return c
}

func TestCache_SetAndGet(t *testing.T) {
	now := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCache(t, &now)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v1"), time.Time{}))
	require.NoError(t, c.Set(ctx, "k", []byte("v2"), now.Add(time.Hour)))

	got, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v2"), got)
}

func TestCache_GetMissing(t *testing.T) {
	now := time.Now()
	c := newTestCache(t, &now)

	_, found, err := c.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_ExpiredIsAbsent(t *testing.T) {
	now := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCache(t, &now)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), now.Add(time.Minute)))
	now = now.Add(time.Minute)

	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_SetIfAbsent(t *testing.T) {
	now := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCache(t, &now)
	ctx := context.Background()

	stored, err := c.SetIfAbsent(ctx, "k", []byte("first"), now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = c.SetIfAbsent(ctx, "k", []byte("second"), now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, stored)

	got, _, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("first"), got)

	now = now.Add(2 * time.Hour)
	stored, err = c.SetIfAbsent(ctx, "k", []byte("third"), now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, stored, "an expired row must be replaced")

	got, _, _ = c.Get(ctx, "k")
	assert.Equal(t, []byte("third"), got)
}

func TestCache_SetIfAbsentNoExpiryIsPermanent(t *testing.T) {
	now := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCache(t, &now)
	ctx := context.Background()

	stored, err := c.SetIfAbsent(ctx, "k", []byte("first"), time.Time{})
	require.NoError(t, err)
	require.True(t, stored)

	now = now.Add(24 * 365 * time.Hour)
	stored, err = c.SetIfAbsent(ctx, "k", []byte("second"), time.Time{})
	require.NoError(t, err)
	assert.False(t, stored)
}

func TestCache_SetIfAbsentConcurrent(t *testing.T) {
	now := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCache(t, &now)
	ctx := context.Background()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := c.SetIfAbsent(ctx, "k", []byte("v"), time.Time{})
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestCache_PastExpiryStoresNothing(t *testing.T) {
	now := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCache(t, &now)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Time{}))
	require.NoError(t, c.Set(ctx, "k", []byte("v"), now))

	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_DeleteAndPurge(t *testing.T) {
	now := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCache(t, &now)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), now.Add(time.Minute)))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), now.Add(time.Hour)))
	require.NoError(t, c.Set(ctx, "c", []byte("3"), time.Time{}))

	require.NoError(t, c.Delete(ctx, "c", "missing"))

	now = now.Add(30 * time.Minute)
	n, err := c.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, found, _ := c.Get(ctx, "b")
	assert.True(t, found)
	_, found, _ = c.Get(ctx, "c")
	assert.False(t, found)
}

func TestCache_StartSweeperStopsOnCancel(t *testing.T) {
	now := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCache(t, &now)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.StartSweeper(ctx, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}

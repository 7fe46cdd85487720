package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probeCache struct {
	keys []string
	err  error
}

func (c *probeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.keys = append(c.keys, key)
	return nil, false, c.err
}

func (c *probeCache) Set(context.Context, string, []byte, time.Time) error {
	return errors.New("unexpected write")
}

func (c *probeCache) SetIfAbsent(context.Context, string, []byte, time.Time) (bool, error) {
	return false, errors.New("unexpected write")
}

func (c *probeCache) Delete(context.Context, ...string) error {
	return errors.New("unexpected write")
}

func TestHealthService_Check(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		healthy bool
	}{
		{name: "store answers", healthy: true},
		{name: "store down", err: errors.New("connection refused"), healthy: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &probeCache{err: tt.err}
			svc := NewHealthService(cache, "passlink:")

			report := svc.Check(context.Background())

			assert.Equal(t, tt.healthy, report.Healthy())
			assert.Equal(t, []string{"passlink:health"}, cache.keys)
			if tt.err != nil {
				require.Error(t, report.StoreErr)
				assert.ErrorIs(t, report.StoreErr, tt.err)
			}
		})
	}
}

func TestHealthService_Latency(t *testing.T) {
	svc := NewHealthService(&probeCache{}, "")
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	svc.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * 5 * time.Millisecond)
	}

	report := svc.Check(context.Background())
	assert.Equal(t, 5*time.Millisecond, report.Latency)
}

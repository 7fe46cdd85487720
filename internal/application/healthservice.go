package application

import (
	"context"
	"fmt"
	"time"

	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

const healthProbeTimeout = 2 * time.Second

// HealthReport is the result of a readiness probe.
type HealthReport struct {
	StoreErr error
	Latency  time.Duration
}

// Healthy reports whether every dependency answered.
func (r HealthReport) Healthy() bool {
	return r.StoreErr == nil
}

// HealthService probes the dependencies the bot cannot serve without.
type HealthService struct {
	cache driven.Cache
	key   string
	now   func() time.Time
}

// NewHealthService creates a HealthService that reads a probe key under
// prefix. The key is never written.
func NewHealthService(cache driven.Cache, prefix string) *HealthService {
	return &HealthService{
		cache: cache,
		key:   prefix + "health",
		now:   time.Now,
	}
}

// Check reads the probe key from the store. A missing key is healthy; only a
// store error is not.
func (s *HealthService) Check(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	start := s.now()
	_, _, err := s.cache.Get(ctx, s.key)
	report := HealthReport{Latency: s.now().Sub(start)}
	if err != nil {
		report.StoreErr = fmt.Errorf("store: %w", err)
	}
	return report
}

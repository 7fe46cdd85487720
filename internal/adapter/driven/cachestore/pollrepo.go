package cachestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ericfisherdev/passlink/internal/domain/model"
	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PollStore = (*PollRepo)(nil)

// PollRepo implements driven.PollStore. Each poll expires retention after its
// last update; a zero retention keeps polls forever.
type PollRepo struct {
	cache     driven.Cache
	prefix    string
	retention time.Duration
}

// NewPollRepo creates a PollRepo.
func NewPollRepo(cache driven.Cache, prefix string, retention time.Duration) *PollRepo {
	return &PollRepo{cache: cache, prefix: prefix, retention: retention}
}

func (r *PollRepo) key(handle string) string {
	return r.prefix + "poll:" + handle
}

// Get returns the poll stored for handle.
func (r *PollRepo) Get(ctx context.Context, handle string) (*model.PollInfo, error) {
	raw, found, err := r.cache.Get(ctx, r.key(handle))
	if err != nil {
		return nil, fmt.Errorf("get poll %s: %w", handle, err)
	}
	if !found {
		return nil, nil
	}

	var poll model.PollInfo
	if err := json.Unmarshal(raw, &poll); err != nil {
		return nil, fmt.Errorf("decode poll %s: %w", handle, err)
	}
	return &poll, nil
}

// Upsert writes poll under its handle.
func (r *PollRepo) Upsert(ctx context.Context, poll model.PollInfo) error {
	raw, err := json.Marshal(poll)
	if err != nil {
		return fmt.Errorf("encode poll %s: %w", poll.Handle, err)
	}

	var expiresAt time.Time
	if r.retention > 0 {
		expiresAt = poll.LastUpdatedAt.Add(r.retention)
	}

	if err := r.cache.Set(ctx, r.key(poll.Handle), raw, expiresAt); err != nil {
		return fmt.Errorf("write poll %s: %w", poll.Handle, err)
	}
	return nil
}

package cachestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/passlink/internal/adapter/driven/memory"
	"github.com/ericfisherdev/passlink/internal/domain/model"
)

func TestPollRepo_UpsertAndGet(t *testing.T) {
	repo := NewPollRepo(memory.NewCache(), "test:", 0)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	poll := model.PollInfo{
		Handle:        "inline-1",
		Creator:       model.PollParticipant{AccountID: 1, DisplayName: "@creator"},
		Participants:  []model.PollParticipant{{AccountID: 2, DisplayName: "@b"}},
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
	require.NoError(t, repo.Upsert(ctx, poll))

	got, err := repo.Get(ctx, "inline-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, poll.Creator, got.Creator)
	assert.Equal(t, poll.Participants, got.Participants)

	missing, err := repo.Get(ctx, "inline-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPollRepo_RetentionExpiresStalePolls(t *testing.T) {
	repo := NewPollRepo(memory.NewCache(), "", time.Hour)
	ctx := context.Background()

	stale := model.PollInfo{Handle: "old", LastUpdatedAt: time.Now().Add(-2 * time.Hour)}
	fresh := model.PollInfo{Handle: "new", LastUpdatedAt: time.Now()}
	require.NoError(t, repo.Upsert(ctx, stale))
	require.NoError(t, repo.Upsert(ctx, fresh))

	got, err := repo.Get(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.Get(ctx, "new")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

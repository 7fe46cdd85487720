package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/passlink/internal/domain/model"
)

func newTestPollService(store *mockPollStore) *PollService {
	svc := NewPollService(store)
	svc.now = func() time.Time { return insideNow }
	return svc
}

func TestPollService_NewPoll(t *testing.T) {
	store := newMockPollStore()
	svc := newTestPollService(store)

	poll, err := svc.NewPoll(context.Background(), "inline-1", model.User{ID: 5, Username: "creator"})
	require.NoError(t, err)

	assert.Equal(t, "inline-1", poll.Handle)
	assert.Equal(t, model.PollParticipant{AccountID: 5, DisplayName: "@creator"}, poll.Creator)
	assert.Empty(t, poll.Participants)
	assert.Equal(t, insideNow, poll.CreatedAt)
	assert.Contains(t, store.polls, "inline-1")
}

func TestPollService_CheckInDeduplicates(t *testing.T) {
	store := newMockPollStore()
	svc := newTestPollService(store)
	ctx := context.Background()

	_, err := svc.NewPoll(ctx, "h", model.User{ID: 5})
	require.NoError(t, err)

	checkIns := []struct {
		user    model.User
		changed bool
	}{
		{model.User{ID: 1, Username: "a"}, true},
		{model.User{ID: 2, Username: "b"}, true},
		{model.User{ID: 1, Username: "a"}, false},
		{model.User{ID: 1, Username: "a2"}, true},
		{model.User{ID: 3, FirstName: "Carol"}, true},
		{model.User{ID: 2, Username: "b"}, false},
	}
	for _, c := range checkIns {
		_, changed, err := svc.CheckIn(ctx, "h", c.user)
		require.NoError(t, err)
		assert.Equal(t, c.changed, changed, "check-in by %d", c.user.ID)
	}

	poll, err := store.Get(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, []model.PollParticipant{
		{AccountID: 1, DisplayName: "@a2"},
		{AccountID: 2, DisplayName: "@b"},
		{AccountID: 3, DisplayName: "Carol"},
	}, poll.Participants)
}

func TestPollService_CheckInUnknownPoll(t *testing.T) {
	svc := newTestPollService(newMockPollStore())

	_, _, err := svc.CheckIn(context.Background(), "missing", model.User{ID: 1})
	assert.ErrorIs(t, err, ErrPollNotFound)
}

func TestPollService_StoreError(t *testing.T) {
	store := newMockPollStore()
	store.err = errors.New("down")
	svc := newTestPollService(store)

	_, err := svc.NewPoll(context.Background(), "h", model.User{ID: 1})
	assert.Error(t, err)

	_, _, err = svc.CheckIn(context.Background(), "h", model.User{ID: 1})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrPollNotFound)
}

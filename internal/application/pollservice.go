package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/passlink/internal/domain/model"
	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

// ErrPollNotFound is returned when a check-in targets an unknown poll.
var ErrPollNotFound = errors.New("poll not found")

// PollService creates and mutates check-in polls.
type PollService struct {
	polls driven.PollStore
	now   func() time.Time
}

// NewPollService creates a new PollService.
func NewPollService(polls driven.PollStore) *PollService {
	return &PollService{polls: polls, now: time.Now}
}

// NewPoll creates and stores an empty poll for handle.
func (s *PollService) NewPoll(ctx context.Context, handle string, creator model.User) (*model.PollInfo, error) {
	now := s.now()
	poll := model.PollInfo{
		Handle:        handle,
		Creator:       model.PollParticipant{AccountID: creator.ID, DisplayName: creator.DisplayName()},
		Participants:  []model.PollParticipant{},
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	if err := s.polls.Upsert(ctx, poll); err != nil {
		return nil, fmt.Errorf("create poll %s: %w", handle, err)
	}
	return &poll, nil
}

// CheckIn adds or updates user on the poll and reports whether the poll
// changed. The read-modify-write is not atomic: concurrent check-ins on one
// poll can lose an update.
func (s *PollService) CheckIn(ctx context.Context, handle string, user model.User) (*model.PollInfo, bool, error) {
	poll, err := s.polls.Get(ctx, handle)
	if err != nil {
		return nil, false, err
	}
	if poll == nil {
		return nil, false, ErrPollNotFound
	}

	changed := poll.CheckIn(model.PollParticipant{AccountID: user.ID, DisplayName: user.DisplayName()}, s.now())
	if !changed {
		return poll, false, nil
	}

	if err := s.polls.Upsert(ctx, *poll); err != nil {
		return nil, false, fmt.Errorf("check in to poll %s: %w", handle, err)
	}
	return poll, true, nil
}

package model

import "time"

// PollParticipant is one account that checked in to a poll.
type PollParticipant struct {
	AccountID   int64  `json:"account_id"`
	DisplayName string `json:"display_name"`
}

// PollInfo is one open check-in poll, keyed by the handle of the message
// that renders it.
type PollInfo struct {
	Handle        string            `json:"handle"`
	Creator       PollParticipant   `json:"creator"`
	Participants  []PollParticipant `json:"participants"`
	CreatedAt     time.Time         `json:"created_at"`
	LastUpdatedAt time.Time         `json:"last_updated_at"`
}

// CheckIn adds p to the participants, or updates the display name if the
// account already checked in. It reports whether anything changed.
func (poll *PollInfo) CheckIn(p PollParticipant, at time.Time) bool {
	for i := range poll.Participants {
		if poll.Participants[i].AccountID != p.AccountID {
			continue
		}
		if poll.Participants[i].DisplayName == p.DisplayName {
			return false
		}
		poll.Participants[i].DisplayName = p.DisplayName
		poll.LastUpdatedAt = at
		return true
	}

	poll.Participants = append(poll.Participants, p)
	poll.LastUpdatedAt = at
	return true
}

// ParticipantIDs returns the account ids of all participants in arrival order.
func (poll PollInfo) ParticipantIDs() []int64 {
	ids := make([]int64, 0, len(poll.Participants))
	for _, p := range poll.Participants {
		ids = append(ids, p.AccountID)
	}
	return ids
}

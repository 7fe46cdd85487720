package driven

import (
	"context"

	"github.com/ericfisherdev/passlink/internal/domain/model"
)

// PollStore defines the driven port for check-in poll persistence.
type PollStore interface {
	// Get returns the poll for handle, or (nil, nil) if none.
	Get(ctx context.Context, handle string) (*model.PollInfo, error)
	Upsert(ctx context.Context, poll model.PollInfo) error
}

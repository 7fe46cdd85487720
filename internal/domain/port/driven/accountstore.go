package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/passlink/internal/domain/model"
)

// ErrAccountNotFound indicates the account has no static configuration.
var ErrAccountNotFound = errors.New("account not found")

// AccountStore defines the driven port for statically configured accounts.
type AccountStore interface {
	// Get returns ErrAccountNotFound if accountID is not configured.
	Get(ctx context.Context, accountID int64) (*model.Account, error)
}

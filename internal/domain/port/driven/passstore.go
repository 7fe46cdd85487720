package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/passlink/internal/domain/model"
)

// ErrCredentialLinked is returned by PassStore.Claim when the credential hash
// is already owned by an active link.
var ErrCredentialLinked = errors.New("credential already linked")

// PassStore defines the driven port for credential link persistence. Each
// link is reachable by account id and by credential hash; both index entries
// expire at the link's ValidTo.
type PassStore interface {
	// GetByAccount returns the link for accountID, or (nil, nil) if none.
	GetByAccount(ctx context.Context, accountID int64) (*model.LinkedPass, error)

	// GetByCredential resolves the hash index to a link, or (nil, nil) if the
	// index is missing or no longer points at a matching, active record.
	GetByCredential(ctx context.Context, hash model.CredentialHash) (*model.LinkedPass, error)

	// Upsert writes pass under both indexes, first removing the index entries
	// of any previous link for the same account. If the account already links
	// the same credential hash, the hash index is left in place.
	Upsert(ctx context.Context, pass model.LinkedPass) error

	// Claim atomically takes ownership of the credential hash for pass and
	// then writes it as Upsert does. Returns ErrCredentialLinked if another
	// active link owns the hash.
	Claim(ctx context.Context, pass model.LinkedPass) error

	// Remove deletes the link for accountID. Removing a missing link is a no-op.
	Remove(ctx context.Context, accountID int64) error
}

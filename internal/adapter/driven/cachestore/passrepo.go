// Package cachestore implements the pass and poll stores on top of a
// driven.Cache.
package cachestore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/passlink/internal/domain/model"
	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PassStore = (*PassRepo)(nil)

// claimAttempts bounds how often Claim retries after clearing a dangling
// hash pointer.
const claimAttempts = 2

// PassRepo implements driven.PassStore. The account key holds the JSON
// record; the credential key holds the owning account id as a pointer.
type PassRepo struct {
	cache  driven.Cache
	prefix string
	now    func() time.Time
}

// NewPassRepo creates a PassRepo. prefix namespaces all keys, so several
// deployments can share one cache.
func NewPassRepo(cache driven.Cache, prefix string) *PassRepo {
	return &PassRepo{cache: cache, prefix: prefix, now: time.Now}
}

func (r *PassRepo) accountKey(accountID int64) string {
	return r.prefix + "linkedpass:account:" + strconv.FormatInt(accountID, 10)
}

func (r *PassRepo) credentialKey(hash model.CredentialHash) string {
	return r.prefix + "linkedpass:credential:" + string(hash)
}

// GetByAccount returns the stored record for accountID.
func (r *PassRepo) GetByAccount(ctx context.Context, accountID int64) (*model.LinkedPass, error) {
	raw, found, err := r.cache.Get(ctx, r.accountKey(accountID))
	if err != nil {
		return nil, fmt.Errorf("get linked pass %d: %w", accountID, err)
	}
	if !found {
		return nil, nil
	}

	var pass model.LinkedPass
	if err := json.Unmarshal(raw, &pass); err != nil {
		return nil, fmt.Errorf("decode linked pass %d: %w", accountID, err)
	}
	return &pass, nil
}

// GetByCredential follows the hash pointer to the account record. A pointer
// whose target is missing, carries another hash or is outside its validity
// window resolves to nil.
func (r *PassRepo) GetByCredential(ctx context.Context, hash model.CredentialHash) (*model.LinkedPass, error) {
	accountID, found, err := r.pointer(ctx, hash)
	if err != nil || !found {
		return nil, err
	}

	pass, err := r.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if pass == nil || pass.CredentialHash != hash || !pass.ActiveAt(r.now()) {
		return nil, nil
	}
	return pass, nil
}

// Upsert replaces any existing record for pass.AccountID. When the record
// keeps its credential hash only the account key is rewritten, so the hash
// pointer is never released and cannot be claimed in between.
func (r *PassRepo) Upsert(ctx context.Context, pass model.LinkedPass) error {
	existing, err := r.GetByAccount(ctx, pass.AccountID)
	if err != nil {
		return err
	}
	if existing != nil && existing.CredentialHash == pass.CredentialHash {
		return r.writeRecord(ctx, pass)
	}

	if err := r.Remove(ctx, pass.AccountID); err != nil {
		return err
	}
	return r.write(ctx, pass)
}

func (r *PassRepo) writeRecord(ctx context.Context, pass model.LinkedPass) error {
	raw, err := json.Marshal(pass)
	if err != nil {
		return fmt.Errorf("encode linked pass %d: %w", pass.AccountID, err)
	}
	if err := r.cache.Set(ctx, r.accountKey(pass.AccountID), raw, pass.ValidTo); err != nil {
		return fmt.Errorf("write linked pass %d: %w", pass.AccountID, err)
	}
	return nil
}

// Claim takes the hash pointer with a conditional write before the account
// record is touched, so two accounts racing for one credential cannot both
// succeed.
func (r *PassRepo) Claim(ctx context.Context, pass model.LinkedPass) error {
	pointerKey := r.credentialKey(pass.CredentialHash)
	owner := []byte(strconv.FormatInt(pass.AccountID, 10))

	for attempt := 0; ; attempt++ {
		stored, err := r.cache.SetIfAbsent(ctx, pointerKey, owner, pass.ValidTo)
		if err != nil {
			return fmt.Errorf("claim credential: %w", err)
		}
		if stored {
			break
		}

		active, err := r.GetByCredential(ctx, pass.CredentialHash)
		if err != nil {
			return err
		}
		if active != nil || attempt+1 >= claimAttempts {
			return driven.ErrCredentialLinked
		}

		// Dangling pointer: clear it and try once more.
		if err := r.cache.Delete(ctx, pointerKey); err != nil {
			return fmt.Errorf("clear dangling credential pointer: %w", err)
		}
	}

	previous, err := r.GetByAccount(ctx, pass.AccountID)
	if err != nil {
		return err
	}
	if previous != nil && previous.CredentialHash != pass.CredentialHash {
		if err := r.cache.Delete(ctx, r.credentialKey(previous.CredentialHash)); err != nil {
			return fmt.Errorf("remove superseded credential pointer: %w", err)
		}
	}

	return r.writeRecord(ctx, pass)
}

// Remove deletes both index entries of the record for accountID.
func (r *PassRepo) Remove(ctx context.Context, accountID int64) error {
	existing, err := r.GetByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.cache.Delete(gctx, r.accountKey(accountID))
	})
	g.Go(func() error {
		return r.cache.Delete(gctx, r.credentialKey(existing.CredentialHash))
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("remove linked pass %d: %w", accountID, err)
	}
	return nil
}

// write stores the record and its pointer concurrently. The two writes are
// not atomic with respect to each other.
func (r *PassRepo) write(ctx context.Context, pass model.LinkedPass) error {
	raw, err := json.Marshal(pass)
	if err != nil {
		return fmt.Errorf("encode linked pass %d: %w", pass.AccountID, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.cache.Set(gctx, r.accountKey(pass.AccountID), raw, pass.ValidTo)
	})
	g.Go(func() error {
		owner := []byte(strconv.FormatInt(pass.AccountID, 10))
		return r.cache.Set(gctx, r.credentialKey(pass.CredentialHash), owner, pass.ValidTo)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("write linked pass %d: %w", pass.AccountID, err)
	}
	return nil
}

func (r *PassRepo) pointer(ctx context.Context, hash model.CredentialHash) (int64, bool, error) {
	raw, found, err := r.cache.Get(ctx, r.credentialKey(hash))
	if err != nil {
		return 0, false, fmt.Errorf("get credential pointer: %w", err)
	}
	if !found {
		return 0, false, nil
	}

	accountID, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		// An unparseable pointer is treated like a dangling one.
		return 0, false, nil
	}
	return accountID, true, nil
}

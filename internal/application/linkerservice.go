package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/passlink/internal/domain/model"
	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

// LinkerService enforces the linking, revocation and notarisation rules. It
// is the only writer of credential link state.
type LinkerService struct {
	passes   driven.PassStore
	verifier driven.CredentialVerifier
	accounts *AccountService
	now      func() time.Time
}

// NewLinkerService creates a new LinkerService.
func NewLinkerService(passes driven.PassStore, verifier driven.CredentialVerifier, accounts *AccountService) *LinkerService {
	return &LinkerService{
		passes:   passes,
		verifier: verifier,
		accounts: accounts,
		now:      time.Now,
	}
}

// Now returns the service clock's current time.
func (s *LinkerService) Now() time.Time {
	return s.now()
}

// VerifyCredential passes payload to the credential verifier unchanged.
func (s *LinkerService) VerifyCredential(ctx context.Context, payload string) (*model.VerificationResult, error) {
	result, err := s.verifier.Verify(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("verify credential: %w", err)
	}
	return result, nil
}

// ActiveLink returns the link for accountID if it is inside its validity
// window, or nil.
func (s *LinkerService) ActiveLink(ctx context.Context, accountID int64) (*model.LinkedPass, error) {
	pass, err := s.passes.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if pass == nil || !pass.ActiveAt(s.now()) {
		return nil, nil
	}
	return pass, nil
}

// IsAccountLinked reports whether accountID has an active link.
func (s *LinkerService) IsAccountLinked(ctx context.Context, accountID int64) (bool, error) {
	pass, err := s.ActiveLink(ctx, accountID)
	return pass != nil, err
}

// IsCredentialLinked reports whether hash is owned by an active link.
func (s *LinkerService) IsCredentialLinked(ctx context.Context, hash model.CredentialHash) (bool, error) {
	pass, err := s.passes.GetByCredential(ctx, hash)
	if err != nil {
		return false, err
	}
	return pass != nil && pass.ActiveAt(s.now()), nil
}

// LinkCredential commits pass, superseding any earlier link of the same
// account. It returns false without mutating anything if pass is outside its
// validity window or the credential is already linked.
func (s *LinkerService) LinkCredential(ctx context.Context, pass model.LinkedPass) (bool, error) {
	if !pass.ActiveAt(s.now()) {
		return false, nil
	}

	pass.Attestors = nil
	err := s.passes.Claim(ctx, pass)
	if errors.Is(err, driven.ErrCredentialLinked) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("link credential for %d: %w", pass.AccountID, err)
	}

	slog.Info("credential linked", "account_id", pass.AccountID, "valid_to", pass.ValidTo)
	return true, nil
}

// RevokeCredential removes any link for accountID.
func (s *LinkerService) RevokeCredential(ctx context.Context, accountID int64) error {
	if err := s.passes.Remove(ctx, accountID); err != nil {
		return fmt.Errorf("revoke credential for %d: %w", accountID, err)
	}
	slog.Info("credential revoked", "account_id", accountID)
	return nil
}

// Notarise records notaryID as an attestor of targetID's active link. It
// returns false if notaryID is not a notary, the target has no active link,
// or notaryID already attests it.
func (s *LinkerService) Notarise(ctx context.Context, targetID, notaryID int64) (bool, error) {
	pass, err := s.notarisable(ctx, targetID, notaryID)
	if err != nil || pass == nil || pass.AttestedBy(notaryID) {
		return false, err
	}

	if err := s.passes.Upsert(ctx, pass.WithAttestor(notaryID)); err != nil {
		return false, fmt.Errorf("notarise %d: %w", targetID, err)
	}
	slog.Info("link notarised", "account_id", targetID, "notary_id", notaryID)
	return true, nil
}

// RevokeNotarisation removes notaryID from targetID's attestors. It returns
// false under the same conditions as Notarise, or if notaryID never attested.
func (s *LinkerService) RevokeNotarisation(ctx context.Context, targetID, notaryID int64) (bool, error) {
	pass, err := s.notarisable(ctx, targetID, notaryID)
	if err != nil || pass == nil || !pass.AttestedBy(notaryID) {
		return false, err
	}

	if err := s.passes.Upsert(ctx, pass.WithoutAttestor(notaryID)); err != nil {
		return false, fmt.Errorf("revoke notarisation of %d: %w", targetID, err)
	}
	slog.Info("notarisation revoked", "account_id", targetID, "notary_id", notaryID)
	return true, nil
}

// FilterAttestedAccounts returns the subset of accountIDs whose active link
// has at least one attestor currently holding the notary claim. Order is
// preserved.
func (s *LinkerService) FilterAttestedAccounts(ctx context.Context, accountIDs []int64) ([]int64, error) {
	notaries := make(map[int64]bool)
	out := make([]int64, 0, len(accountIDs))

	for _, id := range accountIDs {
		pass, err := s.ActiveLink(ctx, id)
		if err != nil {
			return nil, err
		}
		if pass == nil {
			continue
		}

		for _, attestor := range pass.Attestors {
			isNotary, cached := notaries[attestor]
			if !cached {
				isNotary, err = s.accounts.IsNotary(ctx, attestor)
				if err != nil {
					return nil, err
				}
				notaries[attestor] = isNotary
			}
			if isNotary {
				out = append(out, id)
				break
			}
		}
	}

	return out, nil
}

// notarisable returns targetID's active link if notaryID may act on it.
func (s *LinkerService) notarisable(ctx context.Context, targetID, notaryID int64) (*model.LinkedPass, error) {
	isNotary, err := s.accounts.IsNotary(ctx, notaryID)
	if err != nil || !isNotary {
		return nil, err
	}
	return s.ActiveLink(ctx, targetID)
}

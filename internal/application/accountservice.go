// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/ericfisherdev/passlink/internal/domain/model"
	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

// AccountService answers claim questions about configured accounts.
type AccountService struct {
	accounts driven.AccountStore
}

// NewAccountService creates a new AccountService.
func NewAccountService(accounts driven.AccountStore) *AccountService {
	return &AccountService{accounts: accounts}
}

// HasClaim reports whether accountID holds claim. Unconfigured accounts hold
// no claims.
func (s *AccountService) HasClaim(ctx context.Context, accountID int64, claim model.Claim) (bool, error) {
	acct, err := s.accounts.Get(ctx, accountID)
	if errors.Is(err, driven.ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup account %d: %w", accountID, err)
	}
	return acct.Has(claim), nil
}

// IsNotary reports whether accountID holds the notary claim.
func (s *AccountService) IsNotary(ctx context.Context, accountID int64) (bool, error) {
	return s.HasClaim(ctx, accountID, model.ClaimNotary)
}

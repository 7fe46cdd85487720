package model

import (
	"time"

	"github.com/google/uuid"
)

// FailureReason is one reason a credential failed verification.
type FailureReason struct {
	Code    string
	Message string
}

// Identity holds the identity fields decoded from a credential.
type Identity struct {
	GivenName   string
	FamilyName  string
	DateOfBirth time.Time
}

// VerificationResult is the outcome of verifying a raw credential payload.
// It is never persisted.
type VerificationResult struct {
	Succeeded      bool
	FailureReasons []FailureReason
	Identity       *Identity
	TokenID        uuid.UUID
	ValidFrom      time.Time
	ValidTo        time.Time
}

// Complete reports whether a successful result carries everything needed to
// build a link: identity, a token id and a non-empty validity window.
func (r VerificationResult) Complete() bool {
	return r.Succeeded &&
		r.Identity != nil &&
		r.TokenID != uuid.Nil &&
		!r.ValidFrom.IsZero() &&
		r.ValidFrom.Before(r.ValidTo)
}

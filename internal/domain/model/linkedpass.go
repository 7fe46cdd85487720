package model

import (
	"crypto/sha512"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// CredentialHash is the one-way hash of a credential's unique token id. It is
// the only trace of the credential that is ever stored.
type CredentialHash string

// HashCredentialToken derives the CredentialHash for a credential token id:
// upper-case hex of SHA-384 over the canonical hyphenated string form.
func HashCredentialToken(tokenID uuid.UUID) CredentialHash {
	sum := sha512.Sum384([]byte(tokenID.String()))
	return CredentialHash(strings.ToUpper(hex.EncodeToString(sum[:])))
}

// LinkedPass is one active account to credential link.
type LinkedPass struct {
	AccountID      int64          `json:"account_id"`
	CredentialHash CredentialHash `json:"credential_hash"`
	ValidFrom      time.Time      `json:"valid_from"`
	ValidTo        time.Time      `json:"valid_to"`
	Attestors      []int64        `json:"attestors,omitempty"`
}

// ActiveAt reports whether t falls inside [ValidFrom, ValidTo).
func (p LinkedPass) ActiveAt(t time.Time) bool {
	return !t.Before(p.ValidFrom) && t.Before(p.ValidTo)
}

// AttestedBy reports whether accountID has notarised this link.
func (p LinkedPass) AttestedBy(accountID int64) bool {
	return lo.Contains(p.Attestors, accountID)
}

// WithAttestor returns a copy of p with accountID added to the attestors.
// Adding an existing attestor is a no-op.
func (p LinkedPass) WithAttestor(accountID int64) LinkedPass {
	if p.AttestedBy(accountID) {
		return p
	}
	out := p
	out.Attestors = append(append([]int64(nil), p.Attestors...), accountID)
	return out
}

// WithoutAttestor returns a copy of p with accountID removed from the attestors.
func (p LinkedPass) WithoutAttestor(accountID int64) LinkedPass {
	out := p
	out.Attestors = lo.Without(p.Attestors, accountID)
	return out
}

package model

import "github.com/samber/lo"

// Claim is a privilege granted to an account through static configuration.
type Claim string

const (
	ClaimAdmin  Claim = "admin"
	ClaimNotary Claim = "notary"
)

// Valid reports whether c is a known claim.
func (c Claim) Valid() bool {
	return c == ClaimAdmin || c == ClaimNotary
}

// Account is a statically configured platform account and its claims.
type Account struct {
	ID     int64
	Claims []Claim
}

// Has reports whether the account holds claim.
func (a Account) Has(claim Claim) bool {
	return lo.Contains(a.Claims, claim)
}

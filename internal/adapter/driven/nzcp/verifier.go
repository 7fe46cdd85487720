// Package nzcp verifies New Zealand COVID Pass payloads: base32 encoded,
// CBOR/COSE_Sign1 signed CWTs whose issuer keys are published as did:web
// documents.
package nzcp

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base32"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/ericfisherdev/passlink/internal/domain/model"
	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialVerifier = (*Verifier)(nil)

const (
	payloadPrefix = "NZCP:/1/"

	// DefaultIssuer is the production NZCP issuer.
	DefaultIssuer = "did:web:nzcp.identity.health.nz"
)

// Failure codes reported in model.FailureReason.
const (
	CodeInvalidPrefix    = "invalid_prefix"
	CodeInvalidEncoding  = "invalid_encoding"
	CodeInvalidStructure = "invalid_structure"
	CodeUnsupportedAlg   = "unsupported_algorithm"
	CodeMissingKeyID     = "missing_key_id"
	CodeUntrustedIssuer  = "untrusted_issuer"
	CodeUnknownKey       = "unknown_key"
	CodeBadSignature     = "invalid_signature"
	CodeInvalidClaims    = "invalid_claims"
	CodeNotYetActive     = "not_yet_active"
	CodeExpired          = "expired"
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Verifier implements driven.CredentialVerifier for NZCP payloads.
type Verifier struct {
	keys    KeyResolver
	trusted []string
	now     func() time.Time
}

// NewVerifier creates a Verifier accepting passes from trustedIssuers.
func NewVerifier(keys KeyResolver, trustedIssuers []string) *Verifier {
	return &Verifier{keys: keys, trusted: trustedIssuers, now: time.Now}
}

func rejected(code, message string) *model.VerificationResult {
	return &model.VerificationResult{
		FailureReasons: []model.FailureReason{{Code: code, Message: message}},
	}
}

// Verify checks payload and returns the decoded identity on success. Only a
// failure to fetch issuer keys is returned as an error.
func (v *Verifier) Verify(ctx context.Context, payload string) (*model.VerificationResult, error) {
	encoded, ok := strings.CutPrefix(strings.TrimSpace(payload), payloadPrefix)
	if !ok {
		return rejected(CodeInvalidPrefix, "Payload is not an NZ COVID Pass (expected NZCP:/1/ prefix)"), nil
	}

	raw, err := b32.DecodeString(strings.ToUpper(encoded))
	if err != nil {
		return rejected(CodeInvalidEncoding, "Payload is not valid base32"), nil
	}

	var tag cbor.RawTag
	if err := cbor.Unmarshal(raw, &tag); err != nil || tag.Number != coseSign1Tag {
		return rejected(CodeInvalidStructure, "Payload is not a COSE_Sign1 message"), nil
	}

	var msg coseSign1
	if err := cbor.Unmarshal(tag.Content, &msg); err != nil {
		return rejected(CodeInvalidStructure, "Payload is not a COSE_Sign1 message"), nil
	}

	var header coseHeader
	if err := cbor.Unmarshal(msg.Protected, &header); err != nil {
		return rejected(CodeInvalidStructure, "Protected header is malformed"), nil
	}
	if header.Alg != algES256 {
		return rejected(CodeUnsupportedAlg, "Signature algorithm must be ES256"), nil
	}
	if len(header.Kid) == 0 {
		return rejected(CodeMissingKeyID, "Protected header has no key id"), nil
	}

	var claims cwtClaims
	if err := cbor.Unmarshal(msg.Payload, &claims); err != nil {
		return rejected(CodeInvalidClaims, "Pass claims are malformed"), nil
	}
	if !lo.Contains(v.trusted, claims.Iss) {
		return rejected(CodeUntrustedIssuer, "Pass was not issued by a trusted issuer"), nil
	}

	pub, err := v.keys.ResolveKey(ctx, claims.Iss, string(header.Kid))
	if errors.Is(err, errKeyNotFound) {
		return rejected(CodeUnknownKey, "Issuer does not publish the key this pass was signed with"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve issuer key: %w", err)
	}

	if !verifySignature(pub, msg) {
		return rejected(CodeBadSignature, "Pass signature is invalid"), nil
	}

	return v.checkClaims(claims), nil
}

func (v *Verifier) checkClaims(claims cwtClaims) *model.VerificationResult {
	var reasons []model.FailureReason
	addReason := func(code, message string) {
		reasons = append(reasons, model.FailureReason{Code: code, Message: message})
	}

	tokenID, err := uuid.FromBytes(claims.Cti)
	if err != nil {
		addReason(CodeInvalidClaims, "Pass has no valid unique identifier")
	}
	if !lo.Contains(claims.VC.Type, "PublicCovidPass") {
		addReason(CodeInvalidClaims, "Credential is not a public COVID pass")
	}
	dob, err := time.Parse(time.DateOnly, claims.VC.Subject.DOB)
	if err != nil {
		addReason(CodeInvalidClaims, "Date of birth is malformed")
	}
	if claims.Nbf == 0 || claims.Exp == 0 || claims.Exp <= claims.Nbf {
		addReason(CodeInvalidClaims, "Pass validity period is malformed")
	}

	validFrom := time.Unix(claims.Nbf, 0).UTC()
	validTo := time.Unix(claims.Exp, 0).UTC()
	now := v.now()
	if now.Before(validFrom) {
		addReason(CodeNotYetActive, "Pass is not active yet")
	}
	if !now.Before(validTo) {
		addReason(CodeExpired, "Pass has expired")
	}

	if len(reasons) > 0 {
		return &model.VerificationResult{FailureReasons: reasons}
	}

	return &model.VerificationResult{
		Succeeded: true,
		Identity: &model.Identity{
			GivenName:   claims.VC.Subject.GivenName,
			FamilyName:  claims.VC.Subject.FamilyName,
			DateOfBirth: dob,
		},
		TokenID:   tokenID,
		ValidFrom: validFrom,
		ValidTo:   validTo,
	}
}

func verifySignature(pub *ecdsa.PublicKey, msg coseSign1) bool {
	if len(msg.Signature) != 64 {
		return false
	}

	toBeSigned, err := sigStructure(msg.Protected, msg.Payload)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(toBeSigned)

	r := new(big.Int).SetBytes(msg.Signature[:32])
	s := new(big.Int).SetBytes(msg.Signature[32:])
	return ecdsa.Verify(pub, digest[:], r, s)
}

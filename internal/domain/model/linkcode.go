package model

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLinkCode is returned when a link code cannot be parsed or its
// signature does not match.
var ErrInvalidLinkCode = errors.New("invalid link code")

// LinkCodec turns a not-yet-committed LinkedPass into a compact, signed text
// token and back. The token alphabet is base64url plus a single '.', so it
// survives being rendered in a message and pattern-extracted from its text.
type LinkCodec struct {
	secret []byte
}

// NewLinkCodec creates a LinkCodec signing with secret.
func NewLinkCodec(secret []byte) *LinkCodec {
	return &LinkCodec{secret: append([]byte(nil), secret...)}
}

// Encode serializes pass into a link code.
func (c *LinkCodec) Encode(pass LinkedPass) (string, error) {
	body, err := json.Marshal(pass)
	if err != nil {
		return "", fmt.Errorf("marshal link code: %w", err)
	}

	enc := base64.RawURLEncoding
	return enc.EncodeToString(body) + "." + enc.EncodeToString(c.sign(body)), nil
}

// Decode verifies and parses a link code produced by Encode.
func (c *LinkCodec) Decode(code string) (LinkedPass, error) {
	bodyPart, sigPart, ok := strings.Cut(strings.TrimSpace(code), ".")
	if !ok || bodyPart == "" || sigPart == "" {
		return LinkedPass{}, ErrInvalidLinkCode
	}

	enc := base64.RawURLEncoding
	body, err := enc.DecodeString(bodyPart)
	if err != nil {
		return LinkedPass{}, ErrInvalidLinkCode
	}
	sig, err := enc.DecodeString(sigPart)
	if err != nil {
		return LinkedPass{}, ErrInvalidLinkCode
	}
	if !hmac.Equal(sig, c.sign(body)) {
		return LinkedPass{}, ErrInvalidLinkCode
	}

	var pass LinkedPass
	if err := json.Unmarshal(body, &pass); err != nil {
		return LinkedPass{}, ErrInvalidLinkCode
	}
	if pass.AccountID == 0 || pass.CredentialHash == "" || !pass.ValidFrom.Before(pass.ValidTo) {
		return LinkedPass{}, ErrInvalidLinkCode
	}

	return pass, nil
}

func (c *LinkCodec) sign(body []byte) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(body)
	return mac.Sum(nil)
}

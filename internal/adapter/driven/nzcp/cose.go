package nzcp

import (
	"github.com/fxamacker/cbor/v2"
)

const (
	coseSign1Tag = 18
	algES256     = -7
)

// coseSign1 is the untagged content of a COSE_Sign1 structure.
type coseSign1 struct {
	_           struct{} `cbor:",toarray"`
	Protected   []byte
	Unprotected cbor.RawMessage
	Payload     []byte
	Signature   []byte
}

type coseHeader struct {
	Alg int    `cbor:"1,keyasint,omitempty"`
	Kid []byte `cbor:"4,keyasint,omitempty"`
}

// cwtClaims is the CWT claim set carried by a pass.
type cwtClaims struct {
	Iss string     `cbor:"1,keyasint"`
	Exp int64      `cbor:"4,keyasint"`
	Nbf int64      `cbor:"5,keyasint"`
	Cti []byte     `cbor:"7,keyasint"`
	VC  credential `cbor:"vc"`
}

type credential struct {
	Context []string          `cbor:"@context"`
	Version string            `cbor:"version"`
	Type    []string          `cbor:"type"`
	Subject credentialSubject `cbor:"credentialSubject"`
}

type credentialSubject struct {
	GivenName  string `cbor:"givenName"`
	FamilyName string `cbor:"familyName"`
	DOB        string `cbor:"dob"`
}

// sigStructure builds the Sig_structure that a COSE_Sign1 signature covers.
func sigStructure(protected, payload []byte) ([]byte, error) {
	return cbor.Marshal([]any{"Signature1", protected, []byte{}, payload})
}

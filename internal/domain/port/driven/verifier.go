package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/passlink/internal/domain/model"
)

// ErrNoBarcode indicates an image contained no decodable barcode.
var ErrNoBarcode = errors.New("no barcode found")

// CredentialVerifier defines the driven port for credential verification.
// Rejected credentials come back as a result with Succeeded false; an error
// means the verifier itself could not run.
type CredentialVerifier interface {
	Verify(ctx context.Context, payload string) (*model.VerificationResult, error)
}

// BarcodeDecoder defines the driven port for reading a barcode from image bytes.
// Returns ErrNoBarcode (possibly wrapped) when nothing could be decoded.
type BarcodeDecoder interface {
	Decode(ctx context.Context, image []byte) (string, error)
}

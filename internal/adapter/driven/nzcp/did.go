package nzcp

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/samber/lo"
)

// errKeyNotFound means the issuer's DID document does not publish a usable
// assertion key for the requested kid.
var errKeyNotFound = errors.New("issuer key not found")

const maxDocumentSize = 1 << 20

// KeyResolver resolves the public key an issuer signs passes with.
type KeyResolver interface {
	ResolveKey(ctx context.Context, issuer, kid string) (*ecdsa.PublicKey, error)
}

type didDocument struct {
	ID                 string               `json:"id"`
	VerificationMethod []verificationMethod `json:"verificationMethod"`
	AssertionMethod    []string             `json:"assertionMethod"`
}

type verificationMethod struct {
	ID           string          `json:"id"`
	Controller   string          `json:"controller"`
	Type         string          `json:"type"`
	PublicKeyJwk json.RawMessage `json:"publicKeyJwk"`
}

// DIDResolver resolves did:web issuers by fetching their DID document.
// Responses are cached in memory according to their HTTP cache headers.
type DIDResolver struct {
	client      *http.Client
	documentURL func(issuer string) (string, error)
}

// NewDIDResolver creates a DIDResolver with an in-memory HTTP cache.
func NewDIDResolver(timeout time.Duration) *DIDResolver {
	transport := httpcache.NewMemoryCacheTransport()
	return &DIDResolver{
		client:      &http.Client{Transport: transport, Timeout: timeout},
		documentURL: didWebURL,
	}
}

// didWebURL maps did:web:<host> to https://<host>/.well-known/did.json.
func didWebURL(issuer string) (string, error) {
	host, ok := strings.CutPrefix(issuer, "did:web:")
	if !ok || host == "" || strings.ContainsAny(host, "/:?#") {
		return "", fmt.Errorf("unsupported issuer %q", issuer)
	}
	return "https://" + host + "/.well-known/did.json", nil
}

// ResolveKey returns the P-256 key published as <issuer>#<kid>.
func (r *DIDResolver) ResolveKey(ctx context.Context, issuer, kid string) (*ecdsa.PublicKey, error) {
	doc, err := r.fetch(ctx, issuer)
	if err != nil {
		return nil, err
	}
	if doc.ID != issuer {
		return nil, fmt.Errorf("did document id %q does not match issuer %q", doc.ID, issuer)
	}

	methodID := issuer + "#" + kid
	if !lo.Contains(doc.AssertionMethod, methodID) {
		return nil, errKeyNotFound
	}

	method, ok := lo.Find(doc.VerificationMethod, func(m verificationMethod) bool {
		return m.ID == methodID
	})
	if !ok || len(method.PublicKeyJwk) == 0 {
		return nil, errKeyNotFound
	}

	key, err := jwk.ParseKey(method.PublicKeyJwk)
	if err != nil {
		return nil, fmt.Errorf("%w: parse jwk: %v", errKeyNotFound, err)
	}

	var pub ecdsa.PublicKey
	if err := key.Raw(&pub); err != nil {
		return nil, fmt.Errorf("%w: %v", errKeyNotFound, err)
	}
	if pub.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: key is not P-256", errKeyNotFound)
	}

	return &pub, nil
}

func (r *DIDResolver) fetch(ctx context.Context, issuer string) (*didDocument, error) {
	url, err := r.documentURL(issuer)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create did request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch did document: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch did document: unexpected status %d", resp.StatusCode)
	}

	// Read to EOF so the caching transport stores the response.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read did document: %w", err)
	}

	var doc didDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode did document: %w", err)
	}
	return &doc, nil
}

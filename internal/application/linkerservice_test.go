package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/passlink/internal/domain/model"
)

var (
	windowFrom = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	windowTo   = time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	insideNow  = time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)
	guidA      = uuid.MustParse("7b7f7a3c-1f7e-4b1e-9c55-0d1f6f3a2b11")
)

func newTestLinker(store *mockPassStore, accounts *mockAccountStore) *LinkerService {
	svc := NewLinkerService(store, &mockVerifier{}, NewAccountService(accounts))
	svc.now = func() time.Time { return insideNow }
	return svc
}

func passFor(accountID int64, token uuid.UUID) model.LinkedPass {
	return model.LinkedPass{
		AccountID:      accountID,
		CredentialHash: model.HashCredentialToken(token),
		ValidFrom:      windowFrom,
		ValidTo:        windowTo,
	}
}

func TestLinkerService_LinkScenario(t *testing.T) {
	store := newMockPassStore()
	svc := newTestLinker(store, notaries())
	ctx := context.Background()

	ok, err := svc.LinkCredential(ctx, passFor(100, guidA))
	require.NoError(t, err)
	assert.True(t, ok)

	linked, err := svc.IsAccountLinked(ctx, 100)
	require.NoError(t, err)
	assert.True(t, linked)

	credLinked, err := svc.IsCredentialLinked(ctx, model.HashCredentialToken(guidA))
	require.NoError(t, err)
	assert.True(t, credLinked)
}

func TestLinkerService_LinkOutsideWindowNeverMutates(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
	}{
		{"before valid from", windowFrom.Add(-time.Second)},
		{"at valid to", windowTo},
		{"after valid to", windowTo.Add(48 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockPassStore()
			svc := newTestLinker(store, notaries())
			svc.now = func() time.Time { return tt.now }

			ok, err := svc.LinkCredential(context.Background(), passFor(100, guidA))
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Zero(t, store.writes)
		})
	}
}

func TestLinkerService_SameCredentialSucceedsOnce(t *testing.T) {
	store := newMockPassStore()
	svc := newTestLinker(store, notaries())
	ctx := context.Background()

	first, err := svc.LinkCredential(ctx, passFor(100, guidA))
	require.NoError(t, err)
	second, err := svc.LinkCredential(ctx, passFor(200, guidA))
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)

	linked, _ := svc.IsAccountLinked(ctx, 200)
	assert.False(t, linked)
}

func TestLinkerService_RevokeFreesCredential(t *testing.T) {
	store := newMockPassStore()
	svc := newTestLinker(store, notaries())
	ctx := context.Background()

	_, err := svc.LinkCredential(ctx, passFor(100, guidA))
	require.NoError(t, err)

	require.NoError(t, svc.RevokeCredential(ctx, 100))
	require.NoError(t, svc.RevokeCredential(ctx, 100), "revoke is idempotent")

	linked, err := svc.IsAccountLinked(ctx, 100)
	require.NoError(t, err)
	assert.False(t, linked)

	ok, err := svc.LinkCredential(ctx, passFor(100, guidA))
	require.NoError(t, err)
	assert.True(t, ok, "the same code can be used again after revoke")
}

func TestLinkerService_IsAccountLinkedTreatsExpiredAsUnlinked(t *testing.T) {
	store := newMockPassStore()
	svc := newTestLinker(store, notaries())
	ctx := context.Background()

	_, err := svc.LinkCredential(ctx, passFor(100, guidA))
	require.NoError(t, err)

	svc.now = func() time.Time { return windowTo.Add(time.Minute) }

	linked, err := svc.IsAccountLinked(ctx, 100)
	require.NoError(t, err)
	assert.False(t, linked)

	credLinked, err := svc.IsCredentialLinked(ctx, model.HashCredentialToken(guidA))
	require.NoError(t, err)
	assert.False(t, credLinked)
}

func TestLinkerService_Notarise(t *testing.T) {
	store := newMockPassStore()
	svc := newTestLinker(store, notaries(300))
	ctx := context.Background()

	_, err := svc.LinkCredential(ctx, passFor(100, guidA))
	require.NoError(t, err)

	ok, err := svc.Notarise(ctx, 100, 400)
	require.NoError(t, err)
	assert.False(t, ok, "non-notary cannot notarise")

	ok, err = svc.Notarise(ctx, 100, 300)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Notarise(ctx, 100, 300)
	require.NoError(t, err)
	assert.False(t, ok, "second notarisation fails")

	pass, err := svc.ActiveLink(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, []int64{300}, pass.Attestors)

	attested, err := svc.FilterAttestedAccounts(ctx, []int64{100})
	require.NoError(t, err)
	assert.Contains(t, attested, int64(100))
}

func TestLinkerService_NotariseRequiresActiveLink(t *testing.T) {
	svc := newTestLinker(newMockPassStore(), notaries(300))

	ok, err := svc.Notarise(context.Background(), 100, 300)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLinkerService_RevokeNotarisation(t *testing.T) {
	store := newMockPassStore()
	svc := newTestLinker(store, notaries(300, 301))
	ctx := context.Background()

	_, err := svc.LinkCredential(ctx, passFor(100, guidA))
	require.NoError(t, err)

	ok, err := svc.RevokeNotarisation(ctx, 100, 300)
	require.NoError(t, err)
	assert.False(t, ok, "cannot revoke a notarisation that never happened")

	_, err = svc.Notarise(ctx, 100, 300)
	require.NoError(t, err)
	_, err = svc.Notarise(ctx, 100, 301)
	require.NoError(t, err)

	ok, err = svc.RevokeNotarisation(ctx, 100, 300)
	require.NoError(t, err)
	assert.True(t, ok)

	pass, err := svc.ActiveLink(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, []int64{301}, pass.Attestors)
}

func TestLinkerService_LinkDropsForgedAttestors(t *testing.T) {
	store := newMockPassStore()
	svc := newTestLinker(store, notaries(300))
	ctx := context.Background()

	forged := passFor(100, guidA)
	forged.Attestors = []int64{300}

	ok, err := svc.LinkCredential(ctx, forged)
	require.NoError(t, err)
	require.True(t, ok)

	attested, err := svc.FilterAttestedAccounts(ctx, []int64{100})
	require.NoError(t, err)
	assert.Empty(t, attested)
}

func TestLinkerService_FilterAttestedAccountsRechecksClaims(t *testing.T) {
	store := newMockPassStore()
	accounts := notaries(300)
	svc := newTestLinker(store, accounts)
	ctx := context.Background()

	guidB := uuid.MustParse("9a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d")
	_, err := svc.LinkCredential(ctx, passFor(100, guidA))
	require.NoError(t, err)
	_, err = svc.LinkCredential(ctx, passFor(200, guidB))
	require.NoError(t, err)
	_, err = svc.Notarise(ctx, 100, 300)
	require.NoError(t, err)

	attested, err := svc.FilterAttestedAccounts(ctx, []int64{200, 100, 999})
	require.NoError(t, err)
	assert.Equal(t, []int64{100}, attested)

	delete(accounts.accounts, 300)

	attested, err = svc.FilterAttestedAccounts(ctx, []int64{100})
	require.NoError(t, err)
	assert.Empty(t, attested, "revoking the notary claim devalues earlier attestations")
}

func TestLinkerService_StoreErrorsPropagate(t *testing.T) {
	store := newMockPassStore()
	store.err = errors.New("store unavailable")
	svc := newTestLinker(store, notaries(300))
	ctx := context.Background()

	_, err := svc.IsAccountLinked(ctx, 100)
	assert.Error(t, err)

	_, err = svc.LinkCredential(ctx, passFor(100, guidA))
	assert.Error(t, err)

	assert.Error(t, svc.RevokeCredential(ctx, 100))
}

func TestLinkerService_VerifyCredential(t *testing.T) {
	verifier := &mockVerifier{result: &model.VerificationResult{Succeeded: true}}
	svc := NewLinkerService(newMockPassStore(), verifier, NewAccountService(notaries()))

	result, err := svc.VerifyCredential(context.Background(), "X")
	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	assert.Equal(t, "X", verifier.payload)

	verifier.err = errors.New("verifier down")
	_, err = svc.VerifyCredential(context.Background(), "X")
	assert.Error(t, err)
}

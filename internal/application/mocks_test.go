package application

import (
	"context"
	"sync"

	"github.com/ericfisherdev/passlink/internal/domain/model"
	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockPassStore struct {
	mu        sync.Mutex
	byAccount map[int64]model.LinkedPass
	byHash    map[model.CredentialHash]int64
	err       error
	writes    int
}

func newMockPassStore() *mockPassStore {
	return &mockPassStore{
		byAccount: make(map[int64]model.LinkedPass),
		byHash:    make(map[model.CredentialHash]int64),
	}
}

func (m *mockPassStore) GetByAccount(_ context.Context, accountID int64) (*model.LinkedPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.byAccount[accountID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockPassStore) GetByCredential(_ context.Context, hash model.CredentialHash) (*model.LinkedPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	id, ok := m.byHash[hash]
	if !ok {
		return nil, nil
	}
	p, ok := m.byAccount[id]
	if !ok || p.CredentialHash != hash {
		return nil, nil
	}
	return &p, nil
}

func (m *mockPassStore) Upsert(_ context.Context, pass model.LinkedPass) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.put(pass)
	return nil
}

func (m *mockPassStore) Claim(_ context.Context, pass model.LinkedPass) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if owner, ok := m.byHash[pass.CredentialHash]; ok {
		if p, ok := m.byAccount[owner]; ok && p.CredentialHash == pass.CredentialHash {
			return driven.ErrCredentialLinked
		}
	}
	m.put(pass)
	return nil
}

func (m *mockPassStore) Remove(_ context.Context, accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if old, ok := m.byAccount[accountID]; ok {
		delete(m.byHash, old.CredentialHash)
		delete(m.byAccount, accountID)
		m.writes++
	}
	return nil
}

func (m *mockPassStore) put(pass model.LinkedPass) {
	if old, ok := m.byAccount[pass.AccountID]; ok {
		delete(m.byHash, old.CredentialHash)
	}
	m.byAccount[pass.AccountID] = pass
	m.byHash[pass.CredentialHash] = pass.AccountID
	m.writes++
}

type mockAccountStore struct {
	accounts map[int64]model.Account
	err      error
}

func (m *mockAccountStore) Get(_ context.Context, accountID int64) (*model.Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.accounts[accountID]
	if !ok {
		return nil, driven.ErrAccountNotFound
	}
	return &a, nil
}

func notaries(ids ...int64) *mockAccountStore {
	m := &mockAccountStore{accounts: make(map[int64]model.Account)}
	for _, id := range ids {
		m.accounts[id] = model.Account{ID: id, Claims: []model.Claim{model.ClaimNotary}}
	}
	return m
}

type mockVerifier struct {
	result  *model.VerificationResult
	err     error
	payload string
}

func (m *mockVerifier) Verify(_ context.Context, payload string) (*model.VerificationResult, error) {
	m.payload = payload
	return m.result, m.err
}

type mockPollStore struct {
	polls map[string]model.PollInfo
	err   error
}

func newMockPollStore() *mockPollStore {
	return &mockPollStore{polls: make(map[string]model.PollInfo)}
}

func (m *mockPollStore) Get(_ context.Context, handle string) (*model.PollInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.polls[handle]
	if !ok {
		return nil, nil
	}
	p.Participants = append([]model.PollParticipant(nil), p.Participants...)
	return &p, nil
}

func (m *mockPollStore) Upsert(_ context.Context, poll model.PollInfo) error {
	if m.err != nil {
		return m.err
	}
	m.polls[poll.Handle] = poll
	return nil
}

type mockMailer struct {
	sent []model.Email
	err  error
}

func (m *mockMailer) Send(_ context.Context, email model.Email) error {
	m.sent = append(m.sent, email)
	return m.err
}

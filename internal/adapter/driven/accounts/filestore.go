// Package accounts loads statically configured account claims from a TOML file.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/ericfisherdev/passlink/internal/domain/model"
	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AccountStore = (*FileStore)(nil)

type fileFormat struct {
	Account []struct {
		ID     int64    `toml:"id"`
		Claims []string `toml:"claims"`
	} `toml:"account"`
}

// FileStore is an immutable, in-memory AccountStore.
type FileStore struct {
	accounts map[int64]model.Account
}

// NewFileStore builds a FileStore from already-parsed accounts.
func NewFileStore(accounts []model.Account) *FileStore {
	m := make(map[int64]model.Account, len(accounts))
	for _, a := range accounts {
		m[a.ID] = a
	}
	return &FileStore{accounts: m}
}

// Load reads the claims file at path. A missing file yields an empty store.
func Load(path string) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewFileStore(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a claims document. Duplicate ids and unknown claims are errors.
func Parse(data []byte) (*FileStore, error) {
	var doc fileFormat
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("decode accounts file: %w", err)
	}

	seen := make(map[int64]bool, len(doc.Account))
	accounts := make([]model.Account, 0, len(doc.Account))
	for _, entry := range doc.Account {
		if entry.ID == 0 {
			return nil, errors.New("accounts file: account id must be set")
		}
		if seen[entry.ID] {
			return nil, fmt.Errorf("accounts file: duplicate account %d", entry.ID)
		}
		seen[entry.ID] = true

		acct := model.Account{ID: entry.ID}
		for _, c := range entry.Claims {
			claim := model.Claim(c)
			if !claim.Valid() {
				return nil, fmt.Errorf("accounts file: account %d: unknown claim %q", entry.ID, c)
			}
			acct.Claims = append(acct.Claims, claim)
		}
		accounts = append(accounts, acct)
	}

	return NewFileStore(accounts), nil
}

// Get returns the configured account.
func (s *FileStore) Get(_ context.Context, accountID int64) (*model.Account, error) {
	acct, ok := s.accounts[accountID]
	if !ok {
		return nil, driven.ErrAccountNotFound
	}
	return &acct, nil
}

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"spkstore/internal/domain"
	"spkstore/internal/util/memzero"
)

// ErrNoIdentity is returned by LoadIdentity before any identity was saved.
var ErrNoIdentity = errors.New("no identity for scope")

// IdentityFileStore persists one scope's identity keys to an encrypted file.
type IdentityFileStore struct {
	dir    string
	scope  domain.IdentityScope
	params scryptParams
	mu     sync.Mutex
}

// NewIdentityFileStore returns an IdentityFileStore for scope rooted at dir.
func NewIdentityFileStore(dir string, scope domain.IdentityScope) *IdentityFileStore {
	return &IdentityFileStore{dir: dir, scope: scope, params: defaultScryptParams()}
}

func (s *IdentityFileStore) path() string {
	return filepath.Join(s.dir, "identity-"+s.scope.String()+".enc")
}

// SaveIdentity writes the encrypted identity to disk.
func (s *IdentityFileStore) SaveIdentity(passphrase string, id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	defer memzero.Zero(raw)

	ct, err := seal(passphrase, raw, []byte(s.scope.String()), s.params)
	if err != nil {
		return err
	}
	return replaceFile(s.path(), ct, 0o600)
}

// LoadIdentity reads and decrypts the identity.
func (s *IdentityFileStore) LoadIdentity(passphrase string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return domain.Identity{}, fmt.Errorf("%w: %s", ErrNoIdentity, s.scope)
	}
	if err != nil {
		return domain.Identity{}, err
	}
	pt, err := open(passphrase, b, []byte(s.scope.String()))
	if err != nil {
		return domain.Identity{}, err
	}
	defer memzero.Zero(pt)

	var id domain.Identity
	if err := json.Unmarshal(pt, &id); err != nil {
		return domain.Identity{}, err
	}
	return id, nil
}

// Exists reports whether an identity file is present.
func (s *IdentityFileStore) Exists() (bool, error) {
	_, err := os.Stat(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Compile-time assertion that IdentityFileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityFileStore)(nil)

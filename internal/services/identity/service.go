package identity

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"spkstore/internal/crypto"
	"spkstore/internal/domain"
)

// minPassphraseLength is the shortest passphrase accepted for sealing an identity.
const minPassphraseLength = 12

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)

	// ErrIdentityExists is returned by GenerateIdentity when the scope already
	// has an identity. Replacing it would orphan every signed pre-key.
	ErrIdentityExists = errors.New("identity already exists for this scope")
)

// existenceChecker is implemented by stores that can tell whether an
// identity was saved without decrypting it.
type existenceChecker interface {
	Exists() (bool, error)
}

// Service creates and opens the long-term identity of one scope.
//
// The identity contains:
//   - an X25519 key pair for key agreement.
//   - an Ed25519 key pair that signs every signed pre-key of the scope.
type Service struct {
	store domain.IdentityStore
}

// New returns an identity service backed by the given store.
func New(s domain.IdentityStore) *Service { return &Service{store: s} }

// GenerateIdentity creates a new identity, saves it sealed with the
// passphrase, and returns it with the fingerprint of its signing key.
func (s *Service) GenerateIdentity(
	passphrase string,
) (domain.Identity, domain.Fingerprint, error) {
	if !isSecurePassphrase(passphrase) {
		return domain.Identity{}, "", ErrWeakPassphrase
	}
	if ec, ok := s.store.(existenceChecker); ok {
		exists, err := ec.Exists()
		if err != nil {
			return domain.Identity{}, "", err
		}
		if exists {
			return domain.Identity{}, "", ErrIdentityExists
		}
	}

	xPriv, xPub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.Identity{}, "", err
	}
	edPriv, edPub, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.Identity{}, "", err
	}

	id := domain.Identity{XPub: xPub, XPriv: xPriv, EdPub: edPub, EdPriv: edPriv}
	if err := s.store.SaveIdentity(passphrase, id); err != nil {
		return domain.Identity{}, "", err
	}
	return id, fingerprint(id), nil
}

// LoadIdentity decrypts and returns the local identity.
func (s *Service) LoadIdentity(passphrase string) (domain.Identity, error) {
	return s.store.LoadIdentity(passphrase)
}

// FingerprintIdentity returns the fingerprint peers use to check signed pre-key signatures.
func (s *Service) FingerprintIdentity(passphrase string) (domain.Fingerprint, error) {
	id, err := s.store.LoadIdentity(passphrase)
	if err != nil {
		return "", err
	}
	return fingerprint(id), nil
}

func fingerprint(id domain.Identity) domain.Fingerprint {
	return crypto.Fingerprint(id.EdPub.Slice())
}

// passphraseClasses are the character classes a passphrase must all draw from.
var passphraseClasses = []func(rune) bool{
	unicode.IsUpper,
	unicode.IsLower,
	unicode.IsDigit,
	func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) },
}

func isSecurePassphrase(passphrase string) bool {
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, class := range passphraseClasses {
		if !strings.ContainsFunc(passphrase, class) {
			return false
		}
	}
	return true
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)

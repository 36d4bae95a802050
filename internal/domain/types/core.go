package types

import (
	"fmt"
	"strconv"
)

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// SignedPreKeyID identifies a signed pre-key within one identity scope.
type SignedPreKeyID int32

// String returns the decimal form of the identifier.
func (id SignedPreKeyID) String() string { return strconv.FormatInt(int64(id), 10) }

// ParseSignedPreKeyID parses a decimal signed pre-key id.
func ParseSignedPreKeyID(s string) (SignedPreKeyID, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("signed pre-key id %q: %w", s, err)
	}
	return SignedPreKeyID(n), nil
}

// IdentityScope names the identity a store instance belongs to. Scopes never
// share storage.
type IdentityScope uint8

const (
	// ScopePrimary is the account identity.
	ScopePrimary IdentityScope = iota
	// ScopeSecondary is the phone-number identity.
	ScopeSecondary
)

// AllScopes lists every known identity scope.
func AllScopes() []IdentityScope { return []IdentityScope{ScopePrimary, ScopeSecondary} }

// String returns the key-space name of the scope.
func (s IdentityScope) String() string {
	switch s {
	case ScopePrimary:
		return "primary"
	case ScopeSecondary:
		return "secondary"
	default:
		return "scope-" + strconv.Itoa(int(s))
	}
}

// ParseIdentityScope maps a scope name back to its value.
func ParseIdentityScope(name string) (IdentityScope, error) {
	for _, s := range AllScopes() {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown identity scope %q", name)
}

package kv

import (
	"strings"

	"spkstore/internal/domain"
)

// Logical names inside a scope's key space.
const (
	SignedPreKeyNamespace        = "signedPrekey"
	CurrentSignedPreKeyIDKey     = "currentSignedPrekeyId"
	PreKeyUpdateFailureCountKey  = "prekeyUpdateFailureCount"
	FirstPreKeyUpdateFailureDate = "firstPrekeyUpdateFailureDate"
)

// Key joins a scope and path segments into a datastore-style key,
// e.g. Key(ScopePrimary, "signedPrekey", "7") == "/primary/signedPrekey/7".
func Key(scope domain.IdentityScope, segments ...string) string {
	var b strings.Builder
	b.WriteByte('/')
	b.WriteString(scope.String())
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(s)
	}
	return b.String()
}

// Prefix returns Key(scope, segments...) followed by a separator, suitable for
// Scan without matching sibling keys that share a textual prefix.
func Prefix(scope domain.IdentityScope, segments ...string) string {
	return Key(scope, segments...) + "/"
}

// SignedPreKeyKey is the key of one signed pre-key record.
func SignedPreKeyKey(scope domain.IdentityScope, id domain.SignedPreKeyID) string {
	return Key(scope, SignedPreKeyNamespace, id.String())
}

// ParseSignedPreKeyKey extracts the id from a key produced by SignedPreKeyKey.
func ParseSignedPreKeyKey(scope domain.IdentityScope, key string) (domain.SignedPreKeyID, bool) {
	rest, ok := strings.CutPrefix(key, Prefix(scope, SignedPreKeyNamespace))
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return 0, false
	}
	id, err := domain.ParseSignedPreKeyID(rest)
	if err != nil {
		return 0, false
	}
	return id, true
}

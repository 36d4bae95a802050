// Package identity creates and opens the long-term identity of a scope.
//
// It enforces the passphrase policy, generates the X25519 and Ed25519 key
// pairs, and persists them through a domain.IdentityStore. The Ed25519 key is
// the one that signs the scope's signed pre-keys.
package identity

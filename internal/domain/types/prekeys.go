package types

import (
	"fmt"
	"time"
)

// SignedPreKeyRecord is a medium-term X25519 key pair whose public half has
// been signed by the identity's Ed25519 key.
//
// PrivateKey is sensitive; String and GoString never print it.
type SignedPreKeyRecord struct {
	ID          SignedPreKeyID `cbor:"1,keyasint"`
	PublicKey   X25519Public   `cbor:"2,keyasint"`
	PrivateKey  X25519Private  `cbor:"3,keyasint"`
	Signature   []byte         `cbor:"4,keyasint"`
	GeneratedAt time.Time      `cbor:"5,keyasint"`
}

// String returns a log-safe description of the record.
func (r SignedPreKeyRecord) String() string {
	return fmt.Sprintf("SignedPreKeyRecord{ID: %d, GeneratedAt: %s}", r.ID, r.GeneratedAt.Format(time.RFC3339))
}

// GoString keeps %#v from dumping the private key.
func (r SignedPreKeyRecord) GoString() string { return r.String() }

// Complete reports whether the record carries a key pair and a signature.
func (r SignedPreKeyRecord) Complete() bool {
	return !r.PublicKey.IsZero() && !r.PrivateKey.IsZero() && len(r.Signature) > 0
}

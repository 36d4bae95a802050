package crypto

import (
	"crypto/ed25519"
	"crypto/rand"

	"spkstore/internal/domain"
)

// GenerateEd25519 returns a new Ed25519 signing key pair.
func GenerateEd25519() (priv domain.Ed25519Private, pub domain.Ed25519Public, err error) {
	pk, sk, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return priv, pub, err
	}
	copy(priv[:], sk)
	copy(pub[:], pk)
	return priv, pub, nil
}

// SignEd25519 signs msg with priv and returns the signature.
func SignEd25519(priv domain.Ed25519Private, msg []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(priv[:]), msg)
}

// VerifyEd25519 verifies sig over msg with pub.
func VerifyEd25519(pub domain.Ed25519Public, msg, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig)
}

// IdentitySigner signs with an identity's long-term Ed25519 key.
type IdentitySigner struct {
	priv domain.Ed25519Private
	pub  domain.Ed25519Public
}

// NewIdentitySigner returns a signer for id.
func NewIdentitySigner(id domain.Identity) *IdentitySigner {
	return &IdentitySigner{priv: id.EdPriv, pub: id.EdPub}
}

// Sign signs msg with the identity key.
func (s *IdentitySigner) Sign(msg []byte) ([]byte, error) {
	return SignEd25519(s.priv, msg), nil
}

// PublicKey returns the identity's signing public key.
func (s *IdentitySigner) PublicKey() domain.Ed25519Public { return s.pub }

package crypto

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/curve25519"

	"spkstore/internal/domain"
	"spkstore/internal/util/memzero"
)

// GenerateX25519 returns a fresh Curve25519 key pair read from crypto/rand.
// The private key is clamped per RFC 7748.
func GenerateX25519() (priv domain.X25519Private, pub domain.X25519Public, err error) {
	return GenerateX25519From(rand.Reader)
}

// GenerateX25519From is GenerateX25519 with an explicit entropy source.
func GenerateX25519From(r io.Reader) (priv domain.X25519Private, pub domain.X25519Public, err error) {
	if _, err = io.ReadFull(r, priv[:]); err != nil {
		return priv, pub, err
	}
	clamp(&priv)
	pb, err := curve25519.X25519(priv.Slice(), curve25519.Basepoint)
	if err != nil {
		memzero.Zero(priv[:])
		return domain.X25519Private{}, pub, err
	}
	copy(pub[:], pb)
	return priv, pub, nil
}

// PublicFromPrivateX25519 recomputes the public half of priv.
func PublicFromPrivateX25519(priv domain.X25519Private) (domain.X25519Public, error) {
	var pub domain.X25519Public
	pb, err := curve25519.X25519(priv.Slice(), curve25519.Basepoint)
	if err != nil {
		return pub, err
	}
	copy(pub[:], pb)
	return pub, nil
}

func clamp(k *domain.X25519Private) {
	kb := k[:]
	kb[0] &= 248
	kb[31] &= 127
	kb[31] |= 64
}

package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"spkstore/internal/domain"
)

// fingerprintBytes is how much of the SHA-256 digest a fingerprint keeps.
const fingerprintBytes = 10

// Fingerprint returns the display form of a public key: the first 80 bits of
// its SHA-256 digest, hex encoded. Logs carry fingerprints, never key bytes.
func Fingerprint(pub []byte) domain.Fingerprint {
	sum := sha256.Sum256(pub)
	return domain.Fingerprint(hex.EncodeToString(sum[:fingerprintBytes]))
}

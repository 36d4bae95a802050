package crypto_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spkstore/internal/crypto"
	"spkstore/internal/domain"
)

func TestGenerateX25519_ClampedAndConsistent(t *testing.T) {
	priv, pub, err := crypto.GenerateX25519()
	require.NoError(t, err)

	assert.Zero(t, priv[0]&7, "low bits must be cleared")
	assert.Zero(t, priv[31]&128, "high bit must be cleared")
	assert.NotZero(t, priv[31]&64, "second-highest bit must be set")

	again, err := crypto.PublicFromPrivateX25519(priv)
	require.NoError(t, err)
	assert.Equal(t, pub, again)
}

func TestGenerateX25519From_ShortReaderFails(t *testing.T) {
	_, _, err := crypto.GenerateX25519From(bytes.NewReader(make([]byte, 8)))
	require.Error(t, err)
}

func TestIdentitySigner_SignVerify(t *testing.T) {
	edPriv, edPub, err := crypto.GenerateEd25519()
	require.NoError(t, err)

	signer := crypto.NewIdentitySigner(domain.Identity{EdPriv: edPriv, EdPub: edPub})
	msg := []byte("signed pre-key")
	sig, err := signer.Sign(msg)
	require.NoError(t, err)

	assert.Equal(t, edPub, signer.PublicKey())
	assert.True(t, crypto.VerifyEd25519(edPub, msg, sig))
	assert.False(t, crypto.VerifyEd25519(edPub, []byte("tampered"), sig))
}

func TestIdentitySigner_SurvivesIdentityWipe(t *testing.T) {
	edPriv, edPub, err := crypto.GenerateEd25519()
	require.NoError(t, err)
	id := domain.Identity{EdPriv: edPriv, EdPub: edPub}
	signer := crypto.NewIdentitySigner(id)
	id.Wipe()
	assert.Equal(t, domain.Ed25519Private{}, id.EdPriv)

	sig, err := signer.Sign([]byte("m"))
	require.NoError(t, err)
	assert.True(t, crypto.VerifyEd25519(edPub, []byte("m"), sig))
}

func TestFingerprint_Length(t *testing.T) {
	fp := crypto.Fingerprint([]byte{1, 2, 3})
	assert.Len(t, fp, 20)
	assert.Equal(t, fp, crypto.Fingerprint([]byte{1, 2, 3}))
}

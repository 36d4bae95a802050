package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"spkstore/internal/util/memzero"
)

// keystoreFormatVersion is the newest sealed-file format this package writes.
const keystoreFormatVersion = 1

// ErrWrongPassphrase is returned when the passphrase is incorrect or the
// sealed file has been modified.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted identity")

// scryptParams are the key-derivation cost parameters recorded in each file.
type scryptParams struct {
	N, R, P int
}

func defaultScryptParams() scryptParams { return scryptParams{N: 1 << 15, R: 8, P: 1} }

// Bounds on parameters read back from a file; scrypt allocates 128*N*r bytes.
const (
	maxScryptN  = 1 << 20
	maxScryptRP = 64
)

func (p scryptParams) acceptable() bool {
	return p.N > 1 && p.N <= maxScryptN && p.N&(p.N-1) == 0 &&
		p.R > 0 && p.P > 0 && p.R <= maxScryptRP && p.P <= maxScryptRP &&
		p.R*p.P <= maxScryptRP
}

// sealed is the on-disk JSON structure holding the ciphertext and KDF parameters.
type sealed struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// seal derives a key from passphrase and encrypts raw, binding ad as
// associated data.
func seal(passphrase string, raw, ad []byte, kp scryptParams) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key, err := scrypt.Key([]byte(passphrase), salt, kp.N, kp.R, kp.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return json.Marshal(sealed{
		V:      keystoreFormatVersion,
		Salt:   salt,
		N:      kp.N,
		R:      kp.R,
		P:      kp.P,
		Nonce:  nonce,
		Cipher: aead.Seal(nil, nonce, raw, ad),
	})
}

// open reverses seal.
func open(passphrase string, b, ad []byte) ([]byte, error) {
	var s sealed
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if s.V > keystoreFormatVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", s.V)
	}
	if !(scryptParams{N: s.N, R: s.R, P: s.P}).acceptable() {
		return nil, ErrWrongPassphrase
	}
	key, err := scrypt.Key([]byte(passphrase), s.Salt, s.N, s.R, s.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(s.Nonce) != aead.NonceSize() {
		return nil, ErrWrongPassphrase
	}
	pt, err := aead.Open(nil, s.Nonce, s.Cipher, ad)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

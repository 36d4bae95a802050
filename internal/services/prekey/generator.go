package prekey

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"spkstore/internal/crypto"
	"spkstore/internal/domain"
)

const (
	// MaxSignedPreKeyID is the largest id the generator hands out. Ids are
	// medium values (24 bits) so peers can carry them in compact fields.
	MaxSignedPreKeyID domain.SignedPreKeyID = 0xFFFFFF

	defaultMaxAttempts = 32
)

var (
	// ErrSignedPreKeyIDSpaceExhausted means every candidate id drawn was
	// already in use. With a 24-bit id space this only happens when the store
	// is corrupt or the entropy source is broken.
	ErrSignedPreKeyIDSpaceExhausted = errors.New("no free signed pre-key id after bounded attempts")

	// ErrEmptySignature is returned when the signer produced no signature.
	ErrEmptySignature = errors.New("signer returned an empty signature")
)

// Signer signs pre-key public keys with the identity's long-term key.
type Signer interface {
	Sign(msg []byte) ([]byte, error)
	PublicKey() domain.Ed25519Public
}

// Generator produces fresh signed pre-key records. It never persists them.
type Generator struct {
	signer      Signer
	rand        io.Reader
	now         func() time.Time
	maxAttempts int
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRand replaces crypto/rand as the source of ids and key material.
func WithRand(r io.Reader) GeneratorOption {
	return func(g *Generator) { g.rand = r }
}

// WithClock sets the clock used for GeneratedAt.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// WithMaxAttempts bounds how many candidate ids are tried before giving up.
func WithMaxAttempts(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// NewGenerator returns a generator that signs with signer.
func NewGenerator(signer Signer, opts ...GeneratorOption) *Generator {
	g := &Generator{
		signer:      signer,
		rand:        rand.Reader,
		now:         time.Now,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateRandomSignedRecord returns a new record whose id is not reported
// as taken by inUse. The public key is signed by the identity key and
// GeneratedAt is stamped from the generator's clock.
func (g *Generator) GenerateRandomSignedRecord(
	inUse func(domain.SignedPreKeyID) (bool, error),
) (domain.SignedPreKeyRecord, error) {
	id, err := g.pickID(inUse)
	if err != nil {
		return domain.SignedPreKeyRecord{}, err
	}

	priv, pub, err := crypto.GenerateX25519From(g.rand)
	if err != nil {
		return domain.SignedPreKeyRecord{}, fmt.Errorf("generate signed pre-key pair: %w", err)
	}
	sig, err := g.signer.Sign(pub.Slice())
	if err != nil {
		return domain.SignedPreKeyRecord{}, fmt.Errorf("sign signed pre-key: %w", err)
	}
	if len(sig) == 0 {
		return domain.SignedPreKeyRecord{}, ErrEmptySignature
	}

	rec := domain.SignedPreKeyRecord{
		ID:          id,
		PublicKey:   pub,
		PrivateKey:  priv,
		Signature:   sig,
		GeneratedAt: g.now().UTC(),
	}
	log.Debugw("generated signed pre-key", "id", id, "fingerprint", crypto.Fingerprint(pub.Slice()))
	return rec, nil
}

func (g *Generator) pickID(inUse func(domain.SignedPreKeyID) (bool, error)) (domain.SignedPreKeyID, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		id, err := g.randomID()
		if err != nil {
			return 0, fmt.Errorf("draw signed pre-key id: %w", err)
		}
		if id == 0 {
			continue
		}
		taken, err := inUse(id)
		if err != nil {
			return 0, fmt.Errorf("check signed pre-key id %d: %w", id, err)
		}
		if !taken {
			return id, nil
		}
		log.Debugw("signed pre-key id collision", "id", id, "attempt", attempt)
	}
	return 0, fmt.Errorf("%w (%d attempts)", ErrSignedPreKeyIDSpaceExhausted, g.maxAttempts)
}

// randomID draws uniformly from [0, MaxSignedPreKeyID]; pickID rejects 0.
func (g *Generator) randomID() (domain.SignedPreKeyID, error) {
	var buf [4]byte
	if _, err := io.ReadFull(g.rand, buf[:]); err != nil {
		return 0, err
	}
	return domain.SignedPreKeyID(binary.BigEndian.Uint32(buf[:]) & uint32(MaxSignedPreKeyID)), nil
}

// VerifySignedPreKey checks rec's signature against the identity signing key.
func VerifySignedPreKey(identity domain.Ed25519Public, rec domain.SignedPreKeyRecord) bool {
	return crypto.VerifyEd25519(identity, rec.PublicKey.Slice(), rec.Signature)
}

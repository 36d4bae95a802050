package types

// Fixed-size key types. Arrays keep key material out of shared backing
// slices; Slice hands a copy to APIs that want []byte.
type (
	// X25519Public is a Curve25519 public key.
	X25519Public [32]byte
	// X25519Private is a clamped Curve25519 private key.
	X25519Private [32]byte
	// Ed25519Public is an Ed25519 verification key.
	Ed25519Public [32]byte
	// Ed25519Private is an Ed25519 signing key in seed||public form.
	Ed25519Private [64]byte
)

func (p X25519Public) Slice() []byte   { return p[:] }
func (k X25519Private) Slice() []byte  { return k[:] }
func (p Ed25519Public) Slice() []byte  { return p[:] }
func (k Ed25519Private) Slice() []byte { return k[:] }

// IsZero reports whether no key was set.
func (p X25519Public) IsZero() bool { return p == X25519Public{} }

// IsZero reports whether no key was set.
func (k X25519Private) IsZero() bool { return k == X25519Private{} }

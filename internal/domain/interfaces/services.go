package interfaces

import (
	"context"
	"time"

	domaintypes "spkstore/internal/domain/types"
)

// IdentityService creates, retrieves, and inspects your identity keys.
type IdentityService interface {
	GenerateIdentity(passphrase string) (
		domaintypes.Identity,
		domaintypes.Fingerprint,
		error,
	)
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
	FingerprintIdentity(passphrase string) (domaintypes.Fingerprint, error)
}

// PreKeyService generates, rotates and culls signed pre-keys for one scope.
type PreKeyService interface {
	Rotate(ctx context.Context, passphrase string) (domaintypes.SignedPreKeyRecord, error)
	Cull(ctx context.Context, maxAge time.Duration, keep int) ([]domaintypes.SignedPreKeyID, error)
}

package interfaces

import (
	"context"
	"time"

	domaintypes "spkstore/internal/domain/types"
)

// ReadTx is a read transaction handed out by a DB.
//
// Values returned by Get and passed to Scan callbacks are owned by the caller.
type ReadTx interface {
	// Get returns the value for key; a missing key is ok=false with a nil error.
	Get(key string) (value []byte, ok bool, err error)
	// Scan calls fn for every key starting with prefix.
	Scan(prefix string, fn func(key string, value []byte) error) error
}

// WriteTx is a read-write transaction handed out by a DB.
type WriteTx interface {
	ReadTx
	Put(key string, value []byte) error
	// Delete removes key; deleting a missing key is not an error.
	Delete(key string) error
}

// DB is the transactional persistence layer. Commit and rollback are owned by
// the DB: Update commits when fn returns nil and rolls back otherwise.
type DB interface {
	View(ctx context.Context, fn func(tx ReadTx) error) error
	Update(ctx context.Context, fn func(tx WriteTx) error) error
	Close() error
}

// Codec serialises records and scalars to opaque bytes.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// IdentityStore persists your long-term identity keys.
type IdentityStore interface {
	SaveIdentity(passphrase string, id domaintypes.Identity) error
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
}

// SignedPreKeyStore keeps one scope's signed pre-keys and its current id.
type SignedPreKeyStore interface {
	Scope() domaintypes.IdentityScope

	LoadSignedPreKey(
		tx ReadTx,
		id domaintypes.SignedPreKeyID,
	) (domaintypes.SignedPreKeyRecord, bool, error)
	LoadSignedPreKeys(tx ReadTx) ([]domaintypes.SignedPreKeyRecord, error)
	StoreSignedPreKey(
		tx WriteTx,
		id domaintypes.SignedPreKeyID,
		record domaintypes.SignedPreKeyRecord,
	) error
	ContainsSignedPreKey(tx ReadTx, id domaintypes.SignedPreKeyID) (bool, error)
	RemoveSignedPreKey(tx WriteTx, id domaintypes.SignedPreKeyID) error

	// Current signed pre-key selection
	CurrentSignedPreKeyID(tx ReadTx) (domaintypes.SignedPreKeyID, bool, error)
	SetCurrentSignedPreKeyID(tx WriteTx, id domaintypes.SignedPreKeyID) error
	CurrentSignedPreKey(tx ReadTx) (domaintypes.SignedPreKeyRecord, bool, error)
}

// RotationWatchdog records consecutive signed pre-key rotation failures.
type RotationWatchdog interface {
	PreKeyUpdateFailureCount(tx ReadTx) (int32, error)
	IncrementPreKeyUpdateFailureCount(tx WriteTx) (int32, error)
	ClearPreKeyUpdateFailureCount(tx WriteTx) error

	FirstPreKeyUpdateFailureDate(tx ReadTx) (time.Time, bool, error)
	SetFirstPreKeyUpdateFailureDate(tx WriteTx, at time.Time) error
	ClearFirstPreKeyUpdateFailureDate(tx WriteTx) error

	State(tx ReadTx) (domaintypes.WatchdogState, error)
}

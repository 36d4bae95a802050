package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"spkstore/internal/domain"
	"spkstore/internal/kv"
)

// openDBs returns one database per backend so every test runs against both.
func openDBs(t *testing.T) map[string]domain.DB {
	t.Helper()

	bolt, err := kv.OpenBolt(filepath.Join(t.TempDir(), "store.db"), kv.WithBoltNoSync(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })

	level, err := kv.OpenLevelDB("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = level.Close() })

	return map[string]domain.DB{"bolt": bolt, "leveldb": level}
}

func update(t *testing.T, db domain.DB, fn func(tx domain.WriteTx) error) {
	t.Helper()
	require.NoError(t, db.Update(context.Background(), fn))
}

func view(t *testing.T, db domain.DB, fn func(tx domain.ReadTx) error) {
	t.Helper()
	require.NoError(t, db.View(context.Background(), fn))
}

func record(id domain.SignedPreKeyID) domain.SignedPreKeyRecord {
	return domain.SignedPreKeyRecord{
		ID:          id,
		PublicKey:   domain.X25519Public{byte(id), 1},
		PrivateKey:  domain.X25519Private{byte(id), 2},
		Signature:   []byte{byte(id), 3, 3, 3},
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, int(id), time.UTC),
	}
}

func requireSameRecord(t *testing.T, want, got domain.SignedPreKeyRecord) {
	t.Helper()
	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.PublicKey, got.PublicKey)
	require.Equal(t, want.PrivateKey, got.PrivateKey)
	require.Equal(t, want.Signature, got.Signature)
	require.True(t, want.GeneratedAt.Equal(got.GeneratedAt), "generatedAt %s != %s", want.GeneratedAt, got.GeneratedAt)
}

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

package prekey_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spkstore/internal/crypto"
	"spkstore/internal/domain"
	"spkstore/internal/kv"
	"spkstore/internal/services/prekey"
	"spkstore/internal/store"
)

var errBadPassphrase = errors.New("bad passphrase")

type memIdentityStore struct {
	pass string
	id   domain.Identity
}

func (m *memIdentityStore) SaveIdentity(pass string, id domain.Identity) error {
	m.pass, m.id = pass, id
	return nil
}

func (m *memIdentityStore) LoadIdentity(pass string) (domain.Identity, error) {
	if pass != m.pass {
		return domain.Identity{}, errBadPassphrase
	}
	return m.id, nil
}

type fixture struct {
	db       domain.DB
	keys     *store.SignedPreKeyStore
	watchdog *store.RotationWatchdog
	svc      *prekey.Service
	now      time.Time
	identity domain.Identity
}

func newFixture(t *testing.T, opts ...prekey.Option) *fixture {
	t.Helper()
	db, err := kv.OpenLevelDB("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		db:       db,
		now:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		identity: newIdentity(t),
	}
	clock := func() time.Time { return f.now }
	f.keys = store.NewSignedPreKeyStore(domain.ScopePrimary)
	f.watchdog = store.NewRotationWatchdog(domain.ScopePrimary, store.WithNow(clock))
	ids := &memIdentityStore{}
	require.NoError(t, ids.SaveIdentity("pw", f.identity))
	f.svc = prekey.New(ids, db, f.keys, f.watchdog, append([]prekey.Option{prekey.WithNow(clock)}, opts...)...)
	return f
}

func (f *fixture) state(t *testing.T) domain.WatchdogState {
	t.Helper()
	var st domain.WatchdogState
	require.NoError(t, f.db.View(context.Background(), func(tx domain.ReadTx) error {
		var err error
		st, err = f.watchdog.State(tx)
		return err
	}))
	return st
}

func (f *fixture) put(t *testing.T, recs ...domain.SignedPreKeyRecord) {
	t.Helper()
	require.NoError(t, f.db.Update(context.Background(), func(tx domain.WriteTx) error {
		for _, r := range recs {
			if err := f.keys.StoreSignedPreKey(tx, r.ID, r); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestService_RotateStoresAndPromotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Rotate(ctx, "pw")
	require.NoError(t, err)
	assert.True(t, prekey.VerifySignedPreKey(f.identity.EdPub, rec))
	assert.True(t, f.now.Equal(rec.GeneratedAt))

	require.NoError(t, f.db.View(ctx, func(tx domain.ReadTx) error {
		cur, ok, err := f.keys.CurrentSignedPreKey(tx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, rec.ID, cur.ID)
		assert.Equal(t, rec.PublicKey, cur.PublicKey)
		return nil
	}))

	second, err := f.svc.Rotate(ctx, "pw")
	require.NoError(t, err)
	assert.NotEqual(t, rec.ID, second.ID)
}

func TestService_RotateFailureFeedsWatchdog(t *testing.T) {
	// Every draw yields id 5, which is already taken.
	f := newFixture(t, prekey.WithGeneratorOptions(
		prekey.WithRand(repeatReader(idBytes(5))),
		prekey.WithMaxAttempts(3),
	))
	f.put(t, domain.SignedPreKeyRecord{ID: 5, Signature: []byte{1}})
	ctx := context.Background()
	start := f.now

	_, err := f.svc.Rotate(ctx, "pw")
	require.ErrorIs(t, err, prekey.ErrSignedPreKeyIDSpaceExhausted)
	f.now = f.now.Add(time.Hour)
	_, err = f.svc.Rotate(ctx, "pw")
	require.ErrorIs(t, err, prekey.ErrSignedPreKeyIDSpaceExhausted)

	st := f.state(t)
	assert.Equal(t, int32(2), st.FailureCount)
	require.True(t, st.HasFirstFailure)
	assert.True(t, start.Equal(st.FirstFailure))
	assert.Equal(t, time.Hour, st.FailingFor(f.now))
}

func TestService_RotateSuccessClearsWatchdog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.db.Update(ctx, func(tx domain.WriteTx) error {
		_, err := f.watchdog.IncrementPreKeyUpdateFailureCount(tx)
		return err
	}))
	require.True(t, f.state(t).Failing())

	_, err := f.svc.Rotate(ctx, "pw")
	require.NoError(t, err)
	assert.Equal(t, domain.WatchdogState{}, f.state(t))
}

func TestService_RotateWrongPassphraseIsNotARotationFailure(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Rotate(context.Background(), "nope")
	require.ErrorIs(t, err, errBadPassphrase)
	assert.Zero(t, f.state(t).FailureCount)
}

func TestService_Cull(t *testing.T) {
	f := newFixture(t)
	day := 24 * time.Hour
	aged := func(id domain.SignedPreKeyID, age time.Duration) domain.SignedPreKeyRecord {
		return domain.SignedPreKeyRecord{ID: id, Signature: []byte{1}, GeneratedAt: f.now.Add(-age)}
	}
	f.put(t,
		aged(1, 90*day), // current, never culled
		aged(2, 60*day),
		aged(3, 50*day),
		aged(4, 40*day),
		aged(5, 35*day),
		aged(6, 1*day),
	)
	require.NoError(t, f.db.Update(context.Background(), func(tx domain.WriteTx) error {
		return f.keys.SetCurrentSignedPreKeyID(tx, 1)
	}))

	removed, err := f.svc.Cull(context.Background(), 30*day, 3)
	require.NoError(t, err)
	// Newest non-current first: 6, 5, 4 are kept by count; 3 and 2 are old.
	assert.Equal(t, []domain.SignedPreKeyID{2, 3}, removed)

	require.NoError(t, f.db.View(context.Background(), func(tx domain.ReadTx) error {
		all, err := f.keys.LoadSignedPreKeys(tx)
		require.NoError(t, err)
		var ids []domain.SignedPreKeyID
		for _, r := range all {
			ids = append(ids, r.ID)
		}
		assert.Equal(t, []domain.SignedPreKeyID{1, 4, 5, 6}, ids)
		return nil
	}))

	removed, err = f.svc.Cull(context.Background(), 30*day, 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.SignedPreKeyID{4, 5}, removed)
}

func TestService_CullRejectsNegativeArguments(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Cull(context.Background(), -time.Second, 1)
	assert.Error(t, err)
	_, err = f.svc.Cull(context.Background(), time.Second, -1)
	assert.Error(t, err)
}

type repeating struct {
	pattern []byte
	off     int
}

func repeatReader(pattern []byte) *repeating { return &repeating{pattern: pattern} }

func (r *repeating) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.pattern[r.off%len(r.pattern)]
		r.off++
	}
	return len(p), nil
}

func TestGenerateUnused_SkipsIDsStoredInTheStore(t *testing.T) {
	f := newFixture(t)
	var stored []domain.SignedPreKeyRecord
	for i := range 100 {
		id := domain.SignedPreKeyID(1 + i*1000)
		stored = append(stored, domain.SignedPreKeyRecord{ID: id, Signature: []byte{1}, GeneratedAt: f.now})
	}
	f.put(t, stored...)

	// The first ten draws all hit stored ids; the eleventh is free.
	var draws []uint32
	for _, rec := range stored[:10] {
		draws = append(draws, uint32(rec.ID))
	}
	const free = 424242
	entropy := append(idBytes(append(draws, free)...), bytes.Repeat([]byte{9}, 32)...)
	gen := prekey.NewGenerator(crypto.NewIdentitySigner(f.identity), prekey.WithRand(bytes.NewReader(entropy)))

	require.NoError(t, f.db.View(t.Context(), func(tx domain.ReadTx) error {
		rec, err := prekey.GenerateUnused(tx, f.keys, gen)
		require.NoError(t, err)
		assert.Equal(t, domain.SignedPreKeyID(free), rec.ID)

		taken, err := f.keys.ContainsSignedPreKey(tx, rec.ID)
		require.NoError(t, err)
		assert.False(t, taken)

		all, err := f.keys.LoadSignedPreKeys(tx)
		require.NoError(t, err)
		assert.Len(t, all, 100, "generation must not write")
		return nil
	}))
}

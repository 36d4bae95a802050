package store_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spkstore/internal/codec"
	"spkstore/internal/domain"
	"spkstore/internal/store"
)

func TestRotationWatchdog_DefaultsToNormal(t *testing.T) {
	for name, db := range openDBs(t) {
		t.Run(name, func(t *testing.T) {
			w := store.NewRotationWatchdog(domain.ScopePrimary)
			view(t, db, func(tx domain.ReadTx) error {
				n, err := w.PreKeyUpdateFailureCount(tx)
				require.NoError(t, err)
				assert.Zero(t, n)

				_, ok, err := w.FirstPreKeyUpdateFailureDate(tx)
				require.NoError(t, err)
				assert.False(t, ok)

				st, err := w.State(tx)
				require.NoError(t, err)
				assert.False(t, st.Failing())
				return nil
			})
		})
	}
}

func TestRotationWatchdog_IncrementSetsDateOnceOnly(t *testing.T) {
	for name, db := range openDBs(t) {
		t.Run(name, func(t *testing.T) {
			clock := &fixedClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
			w := store.NewRotationWatchdog(domain.ScopePrimary, store.WithNow(clock.Now))
			first := clock.now

			update(t, db, func(tx domain.WriteTx) error {
				n, err := w.IncrementPreKeyUpdateFailureCount(tx)
				require.NoError(t, err)
				assert.Equal(t, int32(1), n)
				return nil
			})

			clock.Advance(time.Hour)
			update(t, db, func(tx domain.WriteTx) error {
				n, err := w.IncrementPreKeyUpdateFailureCount(tx)
				require.NoError(t, err)
				assert.Equal(t, int32(2), n)
				return nil
			})

			view(t, db, func(tx domain.ReadTx) error {
				n, err := w.PreKeyUpdateFailureCount(tx)
				require.NoError(t, err)
				assert.Equal(t, int32(2), n)

				at, ok, err := w.FirstPreKeyUpdateFailureDate(tx)
				require.NoError(t, err)
				require.True(t, ok)
				assert.True(t, first.Equal(at), "first failure moved to %s", at)

				st, err := w.State(tx)
				require.NoError(t, err)
				assert.Equal(t, time.Hour, st.FailingFor(clock.now))
				return nil
			})
		})
	}
}

func TestRotationWatchdog_IncrementUsesWallClockByDefault(t *testing.T) {
	for name, db := range openDBs(t) {
		t.Run(name, func(t *testing.T) {
			w := store.NewRotationWatchdog(domain.ScopeSecondary)
			before := time.Now()
			update(t, db, func(tx domain.WriteTx) error {
				_, err := w.IncrementPreKeyUpdateFailureCount(tx)
				return err
			})
			view(t, db, func(tx domain.ReadTx) error {
				at, ok, err := w.FirstPreKeyUpdateFailureDate(tx)
				require.NoError(t, err)
				require.True(t, ok)
				assert.WithinDuration(t, before, at, 5*time.Second)
				return nil
			})
		})
	}
}

func TestRotationWatchdog_ClearCountKeepsDate(t *testing.T) {
	for name, db := range openDBs(t) {
		t.Run(name, func(t *testing.T) {
			clock := &fixedClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
			w := store.NewRotationWatchdog(domain.ScopePrimary, store.WithNow(clock.Now))

			update(t, db, func(tx domain.WriteTx) error {
				for range 3 {
					if _, err := w.IncrementPreKeyUpdateFailureCount(tx); err != nil {
						return err
					}
				}
				return w.ClearPreKeyUpdateFailureCount(tx)
			})
			view(t, db, func(tx domain.ReadTx) error {
				st, err := w.State(tx)
				require.NoError(t, err)
				assert.Zero(t, st.FailureCount)
				assert.True(t, st.HasFirstFailure, "date survives a count clear")
				assert.Zero(t, st.FailingFor(clock.now.Add(time.Hour)))
				return nil
			})

			// A stale date is not replaced when a new streak starts.
			clock.Advance(24 * time.Hour)
			update(t, db, func(tx domain.WriteTx) error {
				n, err := w.IncrementPreKeyUpdateFailureCount(tx)
				require.NoError(t, err)
				assert.Equal(t, int32(1), n)
				return nil
			})
			view(t, db, func(tx domain.ReadTx) error {
				at, _, err := w.FirstPreKeyUpdateFailureDate(tx)
				require.NoError(t, err)
				assert.True(t, at.Equal(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)))
				return nil
			})

			update(t, db, func(tx domain.WriteTx) error {
				if err := w.ClearPreKeyUpdateFailureCount(tx); err != nil {
					return err
				}
				return w.ClearFirstPreKeyUpdateFailureDate(tx)
			})
			view(t, db, func(tx domain.ReadTx) error {
				st, err := w.State(tx)
				require.NoError(t, err)
				assert.Equal(t, domain.WatchdogState{}, st)
				return nil
			})
		})
	}
}

func TestRotationWatchdog_SetFirstFailureDate(t *testing.T) {
	for name, db := range openDBs(t) {
		t.Run(name, func(t *testing.T) {
			w := store.NewRotationWatchdog(domain.ScopePrimary)
			at := time.Date(2025, 12, 24, 8, 30, 0, 500, time.FixedZone("x", 3600))

			update(t, db, func(tx domain.WriteTx) error {
				return w.SetFirstPreKeyUpdateFailureDate(tx, at)
			})
			view(t, db, func(tx domain.ReadTx) error {
				got, ok, err := w.FirstPreKeyUpdateFailureDate(tx)
				require.NoError(t, err)
				require.True(t, ok)
				assert.True(t, at.Equal(got))

				n, err := w.PreKeyUpdateFailureCount(tx)
				require.NoError(t, err)
				assert.Zero(t, n)
				return nil
			})
		})
	}
}

func TestRotationWatchdog_CorruptCount(t *testing.T) {
	for name, db := range openDBs(t) {
		t.Run(name, func(t *testing.T) {
			w := store.NewRotationWatchdog(domain.ScopePrimary)
			update(t, db, func(tx domain.WriteTx) error {
				return tx.Put("/primary/prekeyUpdateFailureCount", []byte("nope"))
			})
			err := db.Update(t.Context(), func(tx domain.WriteTx) error {
				_, err := w.IncrementPreKeyUpdateFailureCount(tx)
				return err
			})
			assert.ErrorIs(t, err, store.ErrCorruptScalar)
		})
	}
}

func TestRotationWatchdog_IncrementSaturates(t *testing.T) {
	for name, db := range openDBs(t) {
		t.Run(name, func(t *testing.T) {
			w := store.NewRotationWatchdog(domain.ScopePrimary)
			update(t, db, func(tx domain.WriteTx) error {
				b, err := codec.Default.Marshal(int32(math.MaxInt32))
				require.NoError(t, err)
				return tx.Put("/primary/prekeyUpdateFailureCount", b)
			})

			update(t, db, func(tx domain.WriteTx) error {
				n, err := w.IncrementPreKeyUpdateFailureCount(tx)
				require.NoError(t, err)
				assert.Equal(t, int32(math.MaxInt32), n)
				return nil
			})
			view(t, db, func(tx domain.ReadTx) error {
				n, err := w.PreKeyUpdateFailureCount(tx)
				require.NoError(t, err)
				assert.Equal(t, int32(math.MaxInt32), n)
				return nil
			})
		})
	}
}

func TestRotationWatchdog_NegativeCountIsCorrupt(t *testing.T) {
	for name, db := range openDBs(t) {
		t.Run(name, func(t *testing.T) {
			w := store.NewRotationWatchdog(domain.ScopePrimary)
			update(t, db, func(tx domain.WriteTx) error {
				b, err := codec.Default.Marshal(int32(-3))
				require.NoError(t, err)
				return tx.Put("/primary/prekeyUpdateFailureCount", b)
			})
			err := db.View(t.Context(), func(tx domain.ReadTx) error {
				_, err := w.PreKeyUpdateFailureCount(tx)
				return err
			})
			assert.ErrorIs(t, err, store.ErrCorruptScalar)
		})
	}
}

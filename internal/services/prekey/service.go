package prekey

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"spkstore/internal/crypto"
	"spkstore/internal/domain"
)

var log = logging.Logger("spkstore/prekey")

// Service rotates and culls the signed pre-keys of one identity scope.
//
// It is the consumer of the store and watchdog: each Rotate call is one
// attempt, and a failed attempt is recorded in the watchdog. When to call
// Rotate, and what to do about a long failure streak, is up to the caller.
type Service struct {
	ids      domain.IdentityStore
	db       domain.DB
	keys     domain.SignedPreKeyStore
	watchdog domain.RotationWatchdog
	now      func() time.Time
	genOpts  []GeneratorOption
}

// Option configures a Service.
type Option func(*Service)

// WithNow sets the clock used for generation timestamps and culling.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithGeneratorOptions passes opts to every Generator the service builds.
func WithGeneratorOptions(opts ...GeneratorOption) Option {
	return func(s *Service) { s.genOpts = append(s.genOpts, opts...) }
}

// New returns a Service over one scope's identity, keys and watchdog.
func New(
	ids domain.IdentityStore,
	db domain.DB,
	keys domain.SignedPreKeyStore,
	watchdog domain.RotationWatchdog,
	opts ...Option,
) *Service {
	s := &Service{ids: ids, db: db, keys: keys, watchdog: watchdog, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateUnused generates a record whose id is not stored in keys, checking
// candidates inside tx. Nothing is written.
func GenerateUnused(tx domain.ReadTx, keys domain.SignedPreKeyStore, gen *Generator) (domain.SignedPreKeyRecord, error) {
	return gen.GenerateRandomSignedRecord(func(id domain.SignedPreKeyID) (bool, error) {
		return keys.ContainsSignedPreKey(tx, id)
	})
}

// Rotate generates a new signed pre-key, stores it and makes it current, all
// in one transaction, then resets the watchdog. If anything after loading the
// identity fails, the failure is counted in a separate transaction and the
// original error returned.
func (s *Service) Rotate(ctx context.Context, passphrase string) (domain.SignedPreKeyRecord, error) {
	id, err := s.ids.LoadIdentity(passphrase)
	if err != nil {
		return domain.SignedPreKeyRecord{}, fmt.Errorf("load identity: %w", err)
	}
	signer := crypto.NewIdentitySigner(id)
	id.Wipe()
	gen := NewGenerator(signer, append([]GeneratorOption{WithClock(s.now)}, s.genOpts...)...)

	var rec domain.SignedPreKeyRecord
	err = s.db.Update(ctx, func(tx domain.WriteTx) error {
		var err error
		if rec, err = GenerateUnused(tx, s.keys, gen); err != nil {
			return err
		}
		if err := s.keys.StoreSignedPreKey(tx, rec.ID, rec); err != nil {
			return err
		}
		if err := s.keys.SetCurrentSignedPreKeyID(tx, rec.ID); err != nil {
			return err
		}
		if err := s.watchdog.ClearPreKeyUpdateFailureCount(tx); err != nil {
			return err
		}
		return s.watchdog.ClearFirstPreKeyUpdateFailureDate(tx)
	})
	if err != nil {
		return domain.SignedPreKeyRecord{}, s.recordFailure(ctx, fmt.Errorf("rotate signed pre-key: %w", err))
	}
	log.Infow("rotated signed pre-key",
		"scope", s.keys.Scope(),
		"id", rec.ID,
		"fingerprint", crypto.Fingerprint(rec.PublicKey.Slice()),
	)
	return rec, nil
}

func (s *Service) recordFailure(ctx context.Context, cause error) error {
	var n int32
	err := s.db.Update(context.WithoutCancel(ctx), func(tx domain.WriteTx) error {
		var err error
		n, err = s.watchdog.IncrementPreKeyUpdateFailureCount(tx)
		return err
	})
	if err != nil {
		log.Errorw("could not record rotation failure", "scope", s.keys.Scope(), "error", err)
		return errors.Join(cause, fmt.Errorf("record rotation failure: %w", err))
	}
	log.Warnw("signed pre-key rotation attempt failed", "scope", s.keys.Scope(), "failures", n, "error", cause)
	return cause
}

// Cull removes non-current records older than maxAge. The current record is
// never removed, and the keep most recently generated non-current records
// survive regardless of age so in-flight handshakes can still complete.
// It returns the removed ids in ascending order.
func (s *Service) Cull(ctx context.Context, maxAge time.Duration, keep int) ([]domain.SignedPreKeyID, error) {
	if maxAge < 0 || keep < 0 {
		return nil, fmt.Errorf("cull: negative maxAge %s or keep %d", maxAge, keep)
	}
	now := s.now()
	var removed []domain.SignedPreKeyID
	err := s.db.Update(ctx, func(tx domain.WriteTx) error {
		recs, err := s.keys.LoadSignedPreKeys(tx)
		if err != nil {
			return err
		}
		current, hasCurrent, err := s.keys.CurrentSignedPreKeyID(tx)
		if err != nil {
			return err
		}

		older := slices.DeleteFunc(recs, func(r domain.SignedPreKeyRecord) bool {
			return hasCurrent && r.ID == current
		})
		slices.SortFunc(older, func(a, b domain.SignedPreKeyRecord) int {
			return b.GeneratedAt.Compare(a.GeneratedAt)
		})
		for i, r := range older {
			if i < keep || now.Sub(r.GeneratedAt) <= maxAge {
				continue
			}
			if err := s.keys.RemoveSignedPreKey(tx, r.ID); err != nil {
				return err
			}
			removed = append(removed, r.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cull signed pre-keys: %w", err)
	}
	slices.Sort(removed)
	if len(removed) > 0 {
		log.Infow("culled signed pre-keys", "scope", s.keys.Scope(), "removed", removed)
	}
	return removed, nil
}

// Compile-time assertion that Service implements domain.PreKeyService.
var _ domain.PreKeyService = (*Service)(nil)

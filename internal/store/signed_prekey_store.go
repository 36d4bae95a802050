package store

import (
	"cmp"
	"fmt"
	"slices"

	"spkstore/internal/domain"
	"spkstore/internal/kv"
)

// SignedPreKeyStore keeps the signed pre-keys of one identity scope and the
// id of the current one.
//
// It holds no mutable state: every call runs inside the caller's transaction,
// and atomicity, isolation and commit are the transaction's business. The
// current id is not kept in sync with the records; removing the current
// record leaves a dangling id, which CurrentSignedPreKey reports as absent.
type SignedPreKeyStore struct {
	scope domain.IdentityScope
	opts  options
}

// NewSignedPreKeyStore returns the store for scope.
func NewSignedPreKeyStore(scope domain.IdentityScope, opts ...Option) *SignedPreKeyStore {
	return &SignedPreKeyStore{scope: scope, opts: buildOptions(opts)}
}

// Scope returns the identity scope this store is bound to.
func (s *SignedPreKeyStore) Scope() domain.IdentityScope { return s.scope }

// LoadSignedPreKey returns the record stored under id, if any.
func (s *SignedPreKeyStore) LoadSignedPreKey(
	tx domain.ReadTx,
	id domain.SignedPreKeyID,
) (domain.SignedPreKeyRecord, bool, error) {
	b, ok, err := tx.Get(kv.SignedPreKeyKey(s.scope, id))
	if err != nil {
		return domain.SignedPreKeyRecord{}, false, fmt.Errorf("load signed pre-key %d: %w", id, err)
	}
	if !ok {
		return domain.SignedPreKeyRecord{}, false, nil
	}
	rec, err := s.decode(b)
	if err != nil {
		return domain.SignedPreKeyRecord{}, false, fmt.Errorf("load signed pre-key %d: %w", id, err)
	}
	return rec, true, nil
}

// LoadSignedPreKeys returns every record of the scope ordered by id.
func (s *SignedPreKeyStore) LoadSignedPreKeys(tx domain.ReadTx) ([]domain.SignedPreKeyRecord, error) {
	var out []domain.SignedPreKeyRecord
	err := tx.Scan(kv.Prefix(s.scope, kv.SignedPreKeyNamespace), func(key string, value []byte) error {
		if _, ok := kv.ParseSignedPreKeyKey(s.scope, key); !ok {
			log.Warnw("skipping unrecognised key in signed pre-key namespace", "scope", s.scope, "key", key)
			return nil
		}
		rec, err := s.decode(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load signed pre-keys: %w", err)
	}
	slices.SortFunc(out, func(a, b domain.SignedPreKeyRecord) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// StoreSignedPreKey writes record under id, replacing any previous record
// with that id. The record's own ID must equal id.
func (s *SignedPreKeyStore) StoreSignedPreKey(
	tx domain.WriteTx,
	id domain.SignedPreKeyID,
	record domain.SignedPreKeyRecord,
) error {
	if record.ID != id {
		return fmt.Errorf("store signed pre-key %d (record id %d): %w", id, record.ID, ErrSignedPreKeyIDMismatch)
	}
	b, err := s.opts.codec.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode signed pre-key %d: %w", id, err)
	}
	if err := tx.Put(kv.SignedPreKeyKey(s.scope, id), b); err != nil {
		return fmt.Errorf("store signed pre-key %d: %w", id, err)
	}
	log.Debugw("stored signed pre-key", "scope", s.scope, "id", id)
	return nil
}

// ContainsSignedPreKey reports whether a record is stored under id.
func (s *SignedPreKeyStore) ContainsSignedPreKey(tx domain.ReadTx, id domain.SignedPreKeyID) (bool, error) {
	_, ok, err := tx.Get(kv.SignedPreKeyKey(s.scope, id))
	if err != nil {
		return false, fmt.Errorf("contains signed pre-key %d: %w", id, err)
	}
	return ok, nil
}

// RemoveSignedPreKey deletes the record under id. Removing an absent id is a no-op.
func (s *SignedPreKeyStore) RemoveSignedPreKey(tx domain.WriteTx, id domain.SignedPreKeyID) error {
	if err := tx.Delete(kv.SignedPreKeyKey(s.scope, id)); err != nil {
		return fmt.Errorf("remove signed pre-key %d: %w", id, err)
	}
	log.Debugw("removed signed pre-key", "scope", s.scope, "id", id)
	return nil
}

// CurrentSignedPreKeyID returns the id marked current, if one was ever set.
func (s *SignedPreKeyStore) CurrentSignedPreKeyID(tx domain.ReadTx) (domain.SignedPreKeyID, bool, error) {
	var id domain.SignedPreKeyID
	ok, err := getScalar(tx, s.opts.codec, kv.Key(s.scope, kv.CurrentSignedPreKeyIDKey), &id)
	if err != nil {
		return 0, false, fmt.Errorf("current signed pre-key id: %w", err)
	}
	return id, ok, nil
}

// SetCurrentSignedPreKeyID marks id as current. It does not check that id is stored.
func (s *SignedPreKeyStore) SetCurrentSignedPreKeyID(tx domain.WriteTx, id domain.SignedPreKeyID) error {
	if err := putScalar(tx, s.opts.codec, kv.Key(s.scope, kv.CurrentSignedPreKeyIDKey), id); err != nil {
		return fmt.Errorf("set current signed pre-key id: %w", err)
	}
	log.Infow("current signed pre-key changed", "scope", s.scope, "id", id)
	return nil
}

// CurrentSignedPreKey returns the record the current id points at. A missing
// id, or an id whose record has been removed, yields ok=false.
func (s *SignedPreKeyStore) CurrentSignedPreKey(tx domain.ReadTx) (domain.SignedPreKeyRecord, bool, error) {
	id, ok, err := s.CurrentSignedPreKeyID(tx)
	if err != nil || !ok {
		return domain.SignedPreKeyRecord{}, false, err
	}
	rec, ok, err := s.LoadSignedPreKey(tx, id)
	if err != nil {
		return domain.SignedPreKeyRecord{}, false, err
	}
	if !ok {
		log.Warnw("current signed pre-key id has no stored record", "scope", s.scope, "id", id)
		return domain.SignedPreKeyRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *SignedPreKeyStore) decode(b []byte) (domain.SignedPreKeyRecord, error) {
	var rec domain.SignedPreKeyRecord
	if err := s.opts.codec.Unmarshal(b, &rec); err != nil {
		return domain.SignedPreKeyRecord{}, fmt.Errorf("decode signed pre-key record: %w", err)
	}
	return rec, nil
}

// Compile-time assertion that SignedPreKeyStore implements domain.SignedPreKeyStore.
var _ domain.SignedPreKeyStore = (*SignedPreKeyStore)(nil)

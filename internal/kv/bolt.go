package kv

import (
	"bytes"
	"context"
	"fmt"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"go.etcd.io/bbolt"

	"spkstore/internal/domain"
)

var log = logging.Logger("spkstore/kv")

var boltBucket = []byte("spkstore")

// BoltDB implements domain.DB on a bbolt file.
type BoltDB struct {
	db     *bbolt.DB
	noSync bool
	lockTO time.Duration
}

// BoltOption configures OpenBolt.
type BoltOption func(*BoltDB)

// WithBoltNoSync disables fsync per transaction. Tests only.
func WithBoltNoSync(noSync bool) BoltOption {
	return func(b *BoltDB) { b.noSync = noSync }
}

// WithBoltLockTimeout bounds how long Open waits for the file lock.
func WithBoltLockTimeout(d time.Duration) BoltOption {
	return func(b *BoltDB) { b.lockTO = d }
}

// OpenBolt opens (creating if needed) the bbolt database at path.
func OpenBolt(path string, opts ...BoltOption) (*BoltDB, error) {
	b := &BoltDB{lockTO: time.Second}
	for _, opt := range opts {
		opt(b)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{
		Timeout: b.lockTO,
		NoSync:  b.noSync,
	})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating bucket %s: %w", boltBucket, err)
	}
	b.db = db
	log.Debugw("opened bolt database", "path", path, "noSync", b.noSync)
	return b, nil
}

// View runs fn in a read-only transaction.
func (b *BoltDB) View(ctx context.Context, fn func(tx domain.ReadTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.View(func(tx *bbolt.Tx) error {
		return fn(boltTx{bucket: tx.Bucket(boltBucket)})
	})
}

// Update runs fn in a read-write transaction, committing iff fn returns nil.
func (b *BoltDB) Update(ctx context.Context, fn func(tx domain.WriteTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return fn(boltTx{bucket: tx.Bucket(boltBucket)})
	})
}

// Close closes the underlying file.
func (b *BoltDB) Close() error {
	if b.db == nil {
		return nil
	}
	log.Debugw("closing bolt database", "path", b.db.Path())
	return b.db.Close()
}

type boltTx struct {
	bucket *bbolt.Bucket
}

func (t boltTx) Get(key string) ([]byte, bool, error) {
	v := t.bucket.Get([]byte(key))
	if v == nil {
		return nil, false, nil
	}
	// bbolt values are only valid for the life of the transaction.
	return bytes.Clone(v), true, nil
}

func (t boltTx) Scan(prefix string, fn func(key string, value []byte) error) error {
	p := []byte(prefix)
	c := t.bucket.Cursor()
	for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
		if err := fn(string(k), bytes.Clone(v)); err != nil {
			return err
		}
	}
	return nil
}

func (t boltTx) Put(key string, value []byte) error {
	return t.bucket.Put([]byte(key), value)
}

func (t boltTx) Delete(key string) error {
	return t.bucket.Delete([]byte(key))
}

// Compile-time assertions.
var (
	_ domain.DB      = (*BoltDB)(nil)
	_ domain.WriteTx = boltTx{}
)

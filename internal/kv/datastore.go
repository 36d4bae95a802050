package kv

import (
	"context"
	"errors"
	"fmt"

	ds "github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"
	leveldb "github.com/ipfs/go-ds-leveldb"

	"spkstore/internal/domain"
)

// Datastore implements domain.DB on any go-datastore TxnDatastore.
type Datastore struct {
	store ds.TxnDatastore
}

// NewDatastore wraps store. Close closes store.
func NewDatastore(store ds.TxnDatastore) *Datastore {
	return &Datastore{store: store}
}

// OpenLevelDB opens a go-ds-leveldb datastore at path; an empty path keeps
// everything in memory.
func OpenLevelDB(path string) (*Datastore, error) {
	store, err := leveldb.NewDatastore(path, nil)
	if err != nil {
		return nil, fmt.Errorf("opening leveldb datastore: %w", err)
	}
	log.Debugw("opened leveldb datastore", "path", path, "inMemory", path == "")
	return NewDatastore(store), nil
}

// View runs fn in a read-only datastore transaction.
func (d *Datastore) View(ctx context.Context, fn func(tx domain.ReadTx) error) error {
	txn, err := d.store.NewTransaction(ctx, true)
	if err != nil {
		return fmt.Errorf("begin read transaction: %w", err)
	}
	defer txn.Discard(ctx)
	return fn(dsTx{ctx: ctx, txn: txn})
}

// Update runs fn in a read-write datastore transaction and commits iff fn
// returns nil.
func (d *Datastore) Update(ctx context.Context, fn func(tx domain.WriteTx) error) error {
	txn, err := d.store.NewTransaction(ctx, false)
	if err != nil {
		return fmt.Errorf("begin write transaction: %w", err)
	}
	defer txn.Discard(ctx)
	if err := fn(dsTx{ctx: ctx, txn: txn}); err != nil {
		return err
	}
	if err := txn.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close closes the wrapped datastore.
func (d *Datastore) Close() error { return d.store.Close() }

type dsTx struct {
	ctx context.Context
	txn ds.Txn
}

func (t dsTx) Get(key string) ([]byte, bool, error) {
	v, err := t.txn.Get(t.ctx, ds.NewKey(key))
	if errors.Is(err, ds.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (t dsTx) Scan(prefix string, fn func(key string, value []byte) error) error {
	res, err := t.txn.Query(t.ctx, query.Query{Prefix: prefix})
	if err != nil {
		return err
	}
	defer res.Close()
	entries, err := res.Rest()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := fn(e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}

func (t dsTx) Put(key string, value []byte) error {
	return t.txn.Put(t.ctx, ds.NewKey(key), value)
}

func (t dsTx) Delete(key string) error {
	return t.txn.Delete(t.ctx, ds.NewKey(key))
}

// Compile-time assertions.
var (
	_ domain.DB      = (*Datastore)(nil)
	_ domain.WriteTx = dsTx{}
)

//go:build spkdebug

package store

import (
	"fmt"

	"spkstore/internal/domain"
	"spkstore/internal/kv"
)

// RemoveAll deletes every record and all scalar state of the scope.
// Only built with the spkdebug tag.
func (d *Diagnostics) RemoveAll(tx domain.WriteTx) error {
	var keys []string
	err := tx.Scan(kv.Prefix(d.keys.scope), func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove all: %w", err)
	}
	for _, k := range keys {
		if err := tx.Delete(k); err != nil {
			return fmt.Errorf("remove all: %w", err)
		}
	}
	log.Warnw("removed all signed pre-key state", "scope", d.keys.scope, "keys", len(keys))
	return nil
}

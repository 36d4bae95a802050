package store

import (
	"fmt"

	"spkstore/internal/domain"
)

// getScalar decodes the value under key into out; a missing key is ok=false.
func getScalar(tx domain.ReadTx, c domain.Codec, key string, out any) (bool, error) {
	b, ok, err := tx.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := c.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("%s: %w: %v", key, ErrCorruptScalar, err)
	}
	return true, nil
}

func putScalar(tx domain.WriteTx, c domain.Codec, key string, v any) error {
	b, err := c.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return tx.Put(key, b)
}

// Package codec serialises records and scalar state to bytes.
//
// The default codec is deterministic CBOR (RFC 8949 core deterministic
// encoding) with timestamps written as RFC 3339 strings with nanoseconds, so
// the same value always produces the same bytes and times survive a round
// trip without losing precision.
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"spkstore/internal/domain"
)

// CBOR is a domain.Codec backed by fxamacker/cbor.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// NewCBOR builds the deterministic CBOR codec.
func NewCBOR() (*CBOR, error) {
	encOpts := cbor.CoreDetEncOptions()
	encOpts.Time = cbor.TimeRFC3339Nano
	enc, err := encOpts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor encode mode: %w", err)
	}
	dec, err := cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("cbor decode mode: %w", err)
	}
	return &CBOR{enc: enc, dec: dec}, nil
}

// Default is the shared deterministic CBOR codec.
var Default = mustCBOR()

func mustCBOR() *CBOR {
	c, err := NewCBOR()
	if err != nil {
		panic(err)
	}
	return c
}

// Marshal encodes v.
func (c *CBOR) Marshal(v any) ([]byte, error) { return c.enc.Marshal(v) }

// Unmarshal decodes data into v.
func (c *CBOR) Unmarshal(data []byte, v any) error { return c.dec.Unmarshal(data, v) }

// Compile-time assertion that CBOR implements domain.Codec.
var _ domain.Codec = (*CBOR)(nil)

package store

import (
	"time"

	logging "github.com/ipfs/go-log/v2"

	"spkstore/internal/codec"
	"spkstore/internal/domain"
)

var log = logging.Logger("spkstore/store")

type options struct {
	codec domain.Codec
	now   func() time.Time
}

// Option configures the scoped stores in this package.
type Option func(*options)

// WithCodec replaces the default CBOR codec.
func WithCodec(c domain.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithNow sets the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{codec: codec.Default, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

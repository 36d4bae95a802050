package store

import "errors"

var (
	// ErrSignedPreKeyIDMismatch is returned when a record is stored under an
	// id other than its own.
	ErrSignedPreKeyIDMismatch = errors.New("signed pre-key record id does not match storage id")

	// ErrCorruptScalar is returned when persisted scalar state cannot be decoded.
	ErrCorruptScalar = errors.New("corrupt scalar state")
)

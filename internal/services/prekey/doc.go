// Package prekey generates, rotates and culls signed pre-keys.
//
// Generator draws a fresh X25519 pair and a random 24-bit id that is not yet
// stored, signs the public key with the identity key and returns the record
// without persisting it. Service composes the generator with the store and
// the rotation watchdog: Rotate is one rotation attempt (success clears the
// watchdog, failure increments it), Cull trims old non-current records.
package prekey

// Package store persists signed pre-keys and their bookkeeping.
//
// Everything except the identity file runs inside caller-supplied
// transactions (domain.ReadTx / domain.WriteTx) and holds no state of its own:
//   - SignedPreKeyStore: records keyed by id, plus the current id.
//   - RotationWatchdog: consecutive rotation failures and when they began.
//   - Diagnostics: read-only reports; RemoveAll exists only under the
//     spkdebug build tag.
//
// IdentityFileStore keeps a scope's long-term identity keys in a
// passphrase-sealed file (scrypt + XChaCha20-Poly1305).
//
// One instance of each type serves exactly one identity scope; scopes use
// disjoint key spaces (see package kv) and never see each other's state.
package store

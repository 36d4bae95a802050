package domain

import (
	interfaces "spkstore/internal/domain/interfaces"
	types "spkstore/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Fingerprint        = types.Fingerprint
	SignedPreKeyID     = types.SignedPreKeyID
	IdentityScope      = types.IdentityScope
	Identity           = types.Identity
	SignedPreKeyRecord = types.SignedPreKeyRecord
	WatchdogState      = types.WatchdogState
	X25519Public       = types.X25519Public
	X25519Private      = types.X25519Private
	Ed25519Public      = types.Ed25519Public
	Ed25519Private     = types.Ed25519Private
)

// Identity scopes.
const (
	ScopePrimary   = types.ScopePrimary
	ScopeSecondary = types.ScopeSecondary
)

// Parsers re-exported for callers that only import domain.
var (
	AllScopes           = types.AllScopes
	ParseIdentityScope  = types.ParseIdentityScope
	ParseSignedPreKeyID = types.ParseSignedPreKeyID
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	ReadTx            = interfaces.ReadTx
	WriteTx           = interfaces.WriteTx
	DB                = interfaces.DB
	Codec             = interfaces.Codec
	IdentityService   = interfaces.IdentityService
	PreKeyService     = interfaces.PreKeyService
	IdentityStore     = interfaces.IdentityStore
	SignedPreKeyStore = interfaces.SignedPreKeyStore
	RotationWatchdog  = interfaces.RotationWatchdog
)

// Package crypto holds the key primitives behind signed pre-keys.
//
// Signed pre-keys are X25519 key pairs (GenerateX25519, GenerateX25519From)
// whose public half is signed by the scope's Ed25519 identity key
// (IdentitySigner, SignEd25519) and checked with VerifyEd25519. Fingerprint
// gives the short form used in logs and CLI output.
//
// Keys travel as the fixed-size arrays from internal/domain. Private halves
// are wiped with memzero or Identity.Wipe once no longer needed.
package crypto

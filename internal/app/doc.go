// Package app wires application dependencies for the CLI.
//
// It opens the configured key-value backend once and builds, for every
// identity scope, the identity store, signed pre-key store, rotation
// watchdog, diagnostics and pre-key service on top of it. A single metrics
// collector reports on all scopes.
package app

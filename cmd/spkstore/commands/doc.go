// Package commands defines the spkstore CLI.
//
// Commands
//
//   - init           Create the identity that signs pre-keys
//   - fingerprint    Print the identity fingerprint
//   - rotate         Generate a new signed pre-key and make it current
//   - list           List stored signed pre-keys
//   - current        Show the current signed pre-key
//   - remove         Remove one signed pre-key by id
//   - watchdog       Show or clear the rotation failure state
//   - report         Print a diagnostics report
//   - cull           Remove old non-current signed pre-keys
//   - serve-metrics  Serve Prometheus metrics for all scopes
//   - reset          Remove all state of a scope (spkdebug builds only)
//
// # Implementation
//
// The root command resolves configuration (defaults, then an optional YAML
// file, then flags) and builds the dependency graph once before any
// subcommand runs. The graph is closed after the subcommand returns.
package commands

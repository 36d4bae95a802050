// Package domain defines core data models and interfaces shared across the app.
// It contains plain types (records, scopes, watchdog state) and contracts
// (stores, transactions, services) only.
package domain

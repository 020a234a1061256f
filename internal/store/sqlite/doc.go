// Package sqlite implements the store contracts on an embedded SQLite
// database (modernc.org/sqlite, no cgo).
//
// Flavor names are indexed in an FTS5 table kept in sync by triggers, so
// SearchFlavors matches tokens regardless of order. Writes retry on
// SQLITE_BUSY with a short exponential backoff.
package sqlite

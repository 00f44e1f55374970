// Package store persists stations, actors, barrels and operation logs in
// SQLite.
//
// Store implements workflow.Repository. Every transition runs inside a
// single immediate transaction, and the schema backs the engine's
// invariants with constraints: a claim is present exactly when an item is
// in progress, and at most one operation log entry per barrel is open.
// Busy errors from concurrent writers are retried with a short backoff.
package store

// Package snapshot persists world state to SQLite and restores it.
//
// A snapshot file holds one world: a manifest row (snapshot id, creation
// time, content hash), the entity table, and the attribute table with
// JSON-encoded values. The content hash is computed over a canonical JSON
// rendering of the rows (NFC-normalized strings, keys sorted by UTF-16
// code units), so byte-identical state always hashes identically.
//
// Restore is the motivating bulk-mutation window for deferred validation:
// attribute rows come back in storage order, not declaration order, so the
// whole insertion pass runs inside a global suppression scope and the
// requirement checks flush once at the end.
package snapshot

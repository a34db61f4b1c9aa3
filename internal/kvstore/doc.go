// Package kvstore persists small named payloads in a SQLite database.
//
// The store backs the conversion history list and the access flag. Each key
// holds one opaque byte payload; callers own the encoding. Writes retry on
// SQLITE_BUSY with a bounded backoff, and Sync forces a WAL checkpoint so a
// completed write survives an abrupt exit.
package kvstore

// Package history keeps the capped, most-recent-first list of completed
// conversions.
//
// Records live in memory and are mirrored to a key-value store as a single
// JSON array under RecordsKey. Mutations return immediately; a dedicated
// writer goroutine coalesces pending snapshots and performs the durable write
// followed by a sync. Persistence failures are logged and never surface to the
// caller. Flush waits for every queued write and Close stops the writer.
//
// Each record references up to two blobs (the preview of the original and the
// converted payload). Deleting a record removes its blobs on a best-effort
// basis; ClearAll wipes the blob store.
package history

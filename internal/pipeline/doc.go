// Package pipeline runs batches of queued media conversions.
//
// A Pipeline owns the conversion queue. AddItems enqueues unique sources and
// loads their metadata in the background; StartConversion drains every ready
// item through a fixed pool of workers. Each worker claims one item at a time,
// races a synthetic progress ticker against the real conversion, and reports
// back to a per-batch coordinator goroutine. The coordinator is the only
// writer of item status during a batch: it applies claims, progress,
// completions, and failures in the order it receives them, appends results,
// and records successful conversions in the history store.
//
// Failures never abort a batch. RetryFailed re-runs only the failed subset and
// CancelConversion reverts in-flight items to ready.
package pipeline

// Package logging assembles structured slog loggers and formatting helpers used
// across mediaconv.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with queue item IDs, batch IDs, and stages. ProgressSampler keeps the
// synthetic progress ticker from flooding the log.
package logging

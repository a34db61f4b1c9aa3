// Package services defines shared utilities consumed by the conversion
// pipeline and its external collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp queue item IDs, batch IDs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper, and Kind/Message helpers
//     that turn arbitrary failures into a classification and a one-line
//     user-facing message.
package services

// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe and returns a Result; helper methods expose the
// duration, size, and stream layout the converter and metadata loader need.
package ffprobe

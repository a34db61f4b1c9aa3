// Package engine is the boundary between the conversion pipeline and the
// tools that actually transcode media.
//
// Converter turns a source reference into encoded bytes for a target Format.
// Prober reads duration, size, and a preview thumbnail for a source. FFmpeg
// and FFprobe implement both against the ffmpeg toolchain; tests substitute
// in-memory fakes.
//
// Every failure surfaces as *Error carrying a Kind so callers can classify
// without string matching.
package engine

// Package preflight provides readiness checks for the codec tools and
// filesystem paths mediaconv depends on.
//
// The doctor command runs RunAll and renders each Result. Conversion commands
// call CheckSystemDeps first so a missing ffmpeg fails fast instead of
// failing every item in the batch.
package preflight

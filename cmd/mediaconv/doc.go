// Package main hosts the mediaconv CLI entrypoint and command graph.
//
// Commands resolve configuration once, open the shared stores through
// internal/app, and render results as tables or JSON. Conversion logic lives
// in internal/pipeline; this package only drives it and reports progress.
package main

package preflight

import (
	"context"

	"mediaconv/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Blob directory", cfg.Paths.BlobDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	for _, status := range CheckSystemDeps(cfg) {
		if !status.Available {
			detail := status.Detail
			if status.Optional {
				detail += " (optional)"
			}
			results = append(results, Result{Name: status.Name, Passed: status.Optional, Detail: detail})
			continue
		}
		results = append(results, CheckTool(ctx, status.Name, status.Resolved))
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

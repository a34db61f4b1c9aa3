package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"mediaconv/internal/config"
	"mediaconv/internal/deps"
)

// CheckDirectoryAccess verifies that path exists, is a directory, and is
// readable, writable, and searchable.
func CheckDirectoryAccess(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the codec binaries configured in cfg.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.MediaRequirements(cfg.FFmpegBinary(), cfg.FFprobeBinary()))
}

// CheckTool runs the binary's version command to confirm it executes.
func CheckTool(ctx context.Context, name, binary string) Result {
	version, err := deps.ToolVersion(ctx, binary)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", binary, err)}
	}
	if version == "" {
		version = "ok"
	}
	return Result{Name: name, Passed: true, Detail: version}
}

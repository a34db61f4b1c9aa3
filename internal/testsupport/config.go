package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"mediaconv/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.BlobDir = filepath.Join(base, "data", "media")
	cfgVal.Paths.StateDir = filepath.Join(base, "data", "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "data", "logs")
	cfgVal.Conversion.ProgressIntervalMS = 5

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithMaxRecords overrides the history cap.
func WithMaxRecords(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.MaxRecords = n
	}
}

// WithAccess sets the default access flag.
func WithAccess(permitted bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Access.DefaultPermitted = permitted
	}
}

// WithStubbedBinaries writes stub executables for the provided names into a
// bin directory, prepends it to PATH, and points the engine config at them.
// If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
			switch name {
			case "ffmpeg":
				b.cfg.Engine.FFmpegBinary = target
			case "ffprobe":
				b.cfg.Engine.FFprobeBinary = target
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

package preflight_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediaconv/internal/preflight"
	"mediaconv/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	r := preflight.CheckDirectoryAccess("Data", dir)
	if !r.Passed {
		t.Fatalf("expected pass, got %+v", r)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	r := preflight.CheckDirectoryAccess("Data", filepath.Join(t.TempDir(), "missing"))
	if r.Passed || !strings.Contains(r.Detail, "does not exist") {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := preflight.CheckDirectoryAccess("Data", file)
	if r.Passed || !strings.Contains(r.Detail, "not a directory") {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := preflight.RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil results, got %+v", results)
	}
}

func TestRunAll_StubbedTools(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	results := preflight.RunAll(context.Background(), cfg)
	if len(results) != 6 {
		t.Fatalf("expected 6 checks, got %d: %+v", len(results), results)
	}
	if failed := preflight.Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures %+v", failed)
	}
}

func TestRunAll_MissingFFmpeg(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Engine.FFmpegBinary = "definitely-not-ffmpeg"
	cfg.Engine.FFprobeBinary = "definitely-not-ffprobe"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	failed := preflight.Failed(preflight.RunAll(context.Background(), cfg))
	if len(failed) != 1 || failed[0].Name != "FFmpeg" {
		t.Fatalf("expected only ffmpeg to fail (ffprobe optional), got %+v", failed)
	}
}

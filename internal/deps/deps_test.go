package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Resolved != present {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for unset command: %q", results[2].Detail)
	}

	missing := MissingRequired(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("unexpected missing set %#v", missing)
	}
}

func TestMediaRequirements(t *testing.T) {
	reqs := MediaRequirements("/opt/ffmpeg", "ffprobe")
	if len(reqs) != 2 || reqs[0].Command != "/opt/ffmpeg" || reqs[0].Optional || !reqs[1].Optional {
		t.Fatalf("unexpected requirements %#v", reqs)
	}
}

func TestToolVersion(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "ffmpeg")
	script := []byte("#!/bin/sh\necho 'ffmpeg version 7.1 Copyright'\necho 'built with gcc'\n")
	if err := os.WriteFile(bin, script, 0o755); err != nil {
		t.Fatal(err)
	}
	version, err := ToolVersion(context.Background(), bin)
	if err != nil {
		t.Fatalf("ToolVersion failed: %v", err)
	}
	if version != "ffmpeg version 7.1 Copyright" {
		t.Fatalf("unexpected version %q", version)
	}
	if _, err := ToolVersion(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

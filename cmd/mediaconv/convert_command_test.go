package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConvertRecordsHistoryAndStorage(t *testing.T) {
	env := setupCLITestEnv(t)
	in := filepath.Join(env.baseDir, "in")
	out := filepath.Join(env.baseDir, "out")
	sources := []string{filepath.Join(in, "first_clip.mov"), filepath.Join(in, "second.mov")}
	for _, src := range sources {
		writeSource(t, src)
	}

	args := append([]string{"convert", "--to", "m4a", "--output", out}, sources...)
	stdout, stderr, err := runCLI(t, args, env.configPath)
	if err != nil {
		t.Fatalf("convert: %v (stderr %s)", err, stderr)
	}
	requireContains(t, stdout, "Converted 2 of 2 file(s)")
	requireContains(t, stderr, "[OK]")

	data, err := os.ReadFile(filepath.Join(out, "First Clip.m4a"))
	if err != nil {
		t.Fatalf("read exported output: %v", err)
	}
	if string(data) != "m4a:"+sources[0] {
		t.Fatalf("unexpected output payload %q", data)
	}

	stdout, _, err = runCLI(t, []string{"history", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	var records []recordView
	if err := json.Unmarshal([]byte(stdout), &records); err != nil {
		t.Fatalf("decode history list: %v\n%s", err, stdout)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.TargetFormat != "m4a" || rec.SourceFormat != "mov" {
			t.Fatalf("unexpected formats %+v", rec)
		}
		if rec.OriginalBlobID == "" {
			t.Fatalf("expected preview blob for %s", rec.Title)
		}
	}

	stdout, _, err = runCLI(t, []string{"storage", "usage", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("storage usage: %v", err)
	}
	var usage storageUsage
	if err := json.Unmarshal([]byte(stdout), &usage); err != nil {
		t.Fatalf("decode usage: %v", err)
	}
	if usage.Blobs != 4 || usage.Records != 2 {
		t.Fatalf("unexpected usage %+v", usage)
	}

	exportDir := filepath.Join(env.baseDir, "export")
	target := records[0]
	stdout, _, err = runCLI(t, []string{"history", "export", target.ID, "--dir", exportDir}, env.configPath)
	if err != nil {
		t.Fatalf("history export: %v", err)
	}
	requireContains(t, stdout, "Exported "+target.Title)
	if _, err := os.Stat(filepath.Join(exportDir, target.Title+".m4a")); err != nil {
		t.Fatalf("exported file missing: %v", err)
	}

	stdout, _, err = runCLI(t, []string{"history", "delete", target.ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history delete: %v", err)
	}
	requireContains(t, stdout, "Deleted "+target.ID[:8])

	if _, _, err := runCLI(t, []string{"history", "clear"}, env.configPath); err == nil {
		t.Fatal("expected clear without --yes to fail")
	}
	stdout, _, err = runCLI(t, []string{"history", "clear", "--yes"}, env.configPath)
	if err != nil {
		t.Fatalf("history clear: %v", err)
	}
	requireContains(t, stdout, "Cleared 1 record(s)")

	stdout, _, err = runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list after clear: %v", err)
	}
	requireContains(t, stdout, "No conversions recorded")
}

func TestConvertReportsFailuresAndRetries(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.baseDir, "in", "broken.mov")
	writeSource(t, src)

	env.conv.FailNext(src, 1)
	stdout, _, err := runCLI(t, []string{"convert", src}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "1 conversion(s) failed") {
		t.Fatalf("expected failure error, got %v", err)
	}
	requireContains(t, stdout, "failed")
	requireContains(t, stdout, "simulated failure")

	env.conv.FailNext(src, 1)
	stdout, _, err = runCLI(t, []string{"convert", "--retry", "1", src}, env.configPath)
	if err != nil {
		t.Fatalf("convert with retry: %v", err)
	}
	requireContains(t, stdout, "Converted 1 of 1 file(s)")
	if calls := env.conv.Calls(src); calls != 3 {
		t.Fatalf("expected 3 conversion attempts, got %d", calls)
	}
}

func TestConvertRejectsUnknownTargetAndMissingSource(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.baseDir, "in", "clip.mov")
	writeSource(t, src)

	if _, _, err := runCLI(t, []string{"convert", "--to", "ogg", src}, env.configPath); err == nil {
		t.Fatal("expected unsupported target to fail")
	}
	if _, _, err := runCLI(t, []string{"convert", filepath.Join(env.baseDir, "missing.mov")}, env.configPath); err == nil {
		t.Fatal("expected missing source to fail")
	}
}

func writeSource(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
}

func TestStoragePruneKeepsReferencedBlobs(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.baseDir, "in", "clip.mov")
	writeSource(t, src)
	if _, _, err := runCLI(t, []string{"convert", src}, env.configPath); err != nil {
		t.Fatalf("convert: %v", err)
	}
	orphan := filepath.Join(env.cfg.Paths.BlobDir, "6f9619ff-8b86-4011-b42d-00c04fc964ff")
	if err := os.WriteFile(orphan, []byte("stale"), 0o644); err != nil {
		t.Fatalf("write orphan: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"storage", "prune", "--min-age", "0s"}, env.configPath)
	if err != nil {
		t.Fatalf("storage prune: %v", err)
	}
	requireContains(t, stdout, "Removed 1 file(s)")
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Fatalf("expected orphan removed")
	}

	stdout, _, err = runCLI(t, []string{"storage", "usage", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("storage usage: %v", err)
	}
	var usage storageUsage
	if err := json.Unmarshal([]byte(stdout), &usage); err != nil {
		t.Fatalf("decode usage: %v", err)
	}
	if usage.Blobs != 2 {
		t.Fatalf("expected 2 referenced blobs, got %+v", usage)
	}
}

package engine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediaconv/internal/engine"
)

func TestCachingProberReusesResultUntilFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mov")
	if err := os.WriteFile(path, []byte("one"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	calls := 0
	inner := engine.ProberFunc(func(context.Context, string) (engine.Metadata, error) {
		calls++
		return engine.Metadata{HasVideo: true}, nil
	})
	prober := engine.NewCachingProber(inner, 4, time.Minute)

	for i := 0; i < 3; i++ {
		meta, err := prober.Probe(context.Background(), path)
		if err != nil {
			t.Fatalf("Probe: %v", err)
		}
		if !meta.HasVideo {
			t.Fatalf("unexpected metadata %+v", meta)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one underlying probe, got %d", calls)
	}

	if err := os.WriteFile(path, []byte("longer"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if _, err := prober.Probe(context.Background(), "file://"+path); err != nil {
		t.Fatalf("Probe after change: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected re-probe after change, got %d calls", calls)
	}
}

func TestCachingProberSkipsFailuresAndRemoteSources(t *testing.T) {
	calls := 0
	inner := engine.ProberFunc(func(context.Context, string) (engine.Metadata, error) {
		calls++
		return engine.Metadata{}, errors.New("boom")
	})
	prober := engine.NewCachingProber(inner, 4, time.Minute)

	path := filepath.Join(t.TempDir(), "clip.mov")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, source := range []string{path, path, "https://example.invalid/a.mov"} {
		if _, err := prober.Probe(context.Background(), source); err == nil {
			t.Fatalf("expected error for %s", source)
		}
	}
	if calls != 3 {
		t.Fatalf("expected failures to bypass the cache, got %d calls", calls)
	}
	if prober.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", prober.Len())
	}
}

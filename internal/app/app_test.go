package app_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mediaconv/internal/app"
	"mediaconv/internal/engine"
	"mediaconv/internal/history"
	"mediaconv/internal/testsupport"
)

func TestOpenIsExclusive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	first, err := app.Open(ctx, cfg, nil, app.Options{Exclusive: true})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := app.Open(ctx, cfg, nil, app.Options{Exclusive: true}); !errors.Is(err, app.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	shared, err := app.Open(ctx, cfg, nil, app.Options{})
	if err != nil {
		t.Fatalf("non-exclusive Open failed: %v", err)
	}
	_ = shared.Close()

	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	again, err := app.Open(ctx, cfg, nil, app.Options{Exclusive: true})
	if err != nil {
		t.Fatalf("reopen after Close failed: %v", err)
	}
	_ = again.Close()
}

func TestPipelinePersistsHistoryAcrossOpen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	a, err := app.Open(ctx, cfg, nil, app.Options{Exclusive: true})
	if err != nil {
		t.Fatal(err)
	}
	pipe, err := a.NewPipeline(testsupport.NewConverter(0), testsupport.Prober{}, engine.FormatFLAC)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	if pipe.TargetFormat() != engine.FormatFLAC || pipe.Concurrency() != cfg.Conversion.Concurrency {
		t.Fatalf("pipeline not configured from app: %s/%d", pipe.TargetFormat(), pipe.Concurrency())
	}

	sources := testsupport.WriteSources(t, filepath.Join(testsupport.BaseDir(cfg), "src"), "song.mov")
	if _, err := pipe.AddItems(ctx, sources); err != nil {
		t.Fatal(err)
	}
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pipe.WaitForMetadata(waitCtx); err != nil {
		t.Fatal(err)
	}
	if !pipe.StartConversion(ctx) {
		t.Fatal("expected batch to start")
	}
	if _, err := pipe.Wait(waitCtx); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	b, err := app.Open(ctx, cfg, nil, app.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	records := b.History.Records()
	if len(records) != 1 || records[0].TargetFormat != engine.FormatFLAC {
		t.Fatalf("unexpected records after reopen: %+v", records)
	}
	if n, _ := b.Blobs.Count(); n != 1 {
		t.Fatalf("expected 1 blob, got %d", n)
	}
}

func TestNewPipelineUsesConfiguredTarget(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Conversion.TargetFormat = "png"
	a, err := app.Open(context.Background(), cfg, nil, app.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	pipe, err := a.NewPipeline(testsupport.NewConverter(0), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if pipe.TargetFormat() != engine.FormatPNG {
		t.Fatalf("target = %s, want png", pipe.TargetFormat())
	}
}

func TestProberIsCached(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	a, err := app.Open(context.Background(), cfg, nil, app.Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	if _, ok := a.Prober().(*engine.CachingProber); !ok {
		t.Fatalf("expected a caching prober, got %T", a.Prober())
	}
	if a.Prober() != a.Prober() {
		t.Fatal("Prober must return the same cache on every call")
	}
	if _, ok := a.Converter().(*engine.FFmpeg); !ok {
		t.Fatalf("expected ffmpeg converter, got %T", a.Converter())
	}
}

func TestSharedOpenLeavesHistoryPayloadAlone(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()
	kv := testsupport.MustOpenKV(t, cfg)
	if err := kv.Set(ctx, history.RecordsKey, []byte("garbage")); err != nil {
		t.Fatal(err)
	}
	if err := kv.Close(); err != nil {
		t.Fatal(err)
	}

	shared, err := app.Open(ctx, cfg, nil, app.Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if shared.History.Len() != 0 {
		t.Fatalf("expected empty history, got %d", shared.History.Len())
	}
	if _, ok, _ := shared.KV.Get(ctx, history.RecordsKey); !ok {
		t.Fatal("shared open deleted the history payload")
	}
	_ = shared.Close()

	owner, err := app.Open(ctx, cfg, nil, app.Options{Exclusive: true})
	if err != nil {
		t.Fatalf("exclusive Open failed: %v", err)
	}
	defer owner.Close()
	if _, ok, _ := owner.KV.Get(ctx, history.RecordsKey); ok {
		t.Fatal("exclusive open should discard the undecodable payload")
	}
}

// Package app wires configuration, storage, and the conversion pipeline into
// one process-scoped bundle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"

	"mediaconv/internal/access"
	"mediaconv/internal/blobstore"
	"mediaconv/internal/config"
	"mediaconv/internal/engine"
	"mediaconv/internal/history"
	"mediaconv/internal/kvstore"
	"mediaconv/internal/logging"
	"mediaconv/internal/pipeline"
)

const (
	probeCacheSize = 256
	probeCacheTTL  = 30 * time.Minute
)

// ErrLocked means another mediaconv process holds the state lock.
var ErrLocked = errors.New("another mediaconv process is using the state directory")

// Options control how the bundle is opened.
type Options struct {
	// Exclusive takes the single-instance lock. Commands that write history
	// must set it.
	Exclusive bool
}

// App holds the long-lived collaborators for one process.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	KV      *kvstore.Store
	Blobs   *blobstore.Store
	History *history.Store
	Gate    *access.KVGate

	prober *engine.CachingProber
	lock   *flock.Flock
}

// Open prepares directories, takes the lock when requested, and opens every
// store. History is loaded before Open returns.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	a := &App{Config: cfg, Logger: logger}
	if opts.Exclusive {
		lock := flock.New(cfg.LockPath())
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return nil, ErrLocked
		}
		a.lock = lock
	}

	kv, err := kvstore.Open(cfg.StateDBPath())
	if err != nil {
		a.unlock()
		return nil, fmt.Errorf("open state store: %w", err)
	}
	a.KV = kv

	blobs, err := blobstore.Open(cfg.Paths.BlobDir)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	a.Blobs = blobs

	histOpts := []history.Option{history.WithMaxRecords(cfg.History.MaxRecords)}
	if !opts.Exclusive {
		histOpts = append(histOpts, history.WithReadOnly())
	}
	a.History = history.New(kv, blobs, logger, histOpts...)
	if err := a.History.Load(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Gate = access.NewKVGate(kv, cfg.Access.DefaultPermitted, logger)
	a.prober = engine.NewCachingProber(&engine.FFprobe{
		FFprobeBinary:  cfg.FFprobeBinary(),
		FFmpegBinary:   cfg.FFmpegBinary(),
		ThumbnailWidth: cfg.Engine.ThumbnailWidth,
		Logger:         logging.NewComponentLogger(logger, "probe"),
	}, probeCacheSize, probeCacheTTL)
	return a, nil
}

// Converter returns the ffmpeg-backed converter for this config.
func (a *App) Converter() engine.Converter {
	return engine.NewFFmpeg(a.Config.FFmpegBinary(), "", logging.NewComponentLogger(a.Logger, "engine"))
}

// Prober returns the bundle's ffprobe-backed metadata reader. Results are
// cached per file version for the life of the process.
func (a *App) Prober() engine.Prober {
	return a.prober
}

// NewPipeline builds a pipeline over this bundle's stores. The converter
// and prober default to the ffmpeg toolchain when nil.
func (a *App) NewPipeline(conv engine.Converter, prober engine.Prober, target engine.Format, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	if conv == nil {
		conv = a.Converter()
	}
	if prober == nil {
		prober = a.Prober()
	}
	if target == "" {
		parsed, err := engine.ParseFormat(a.Config.Conversion.TargetFormat)
		if err != nil {
			return nil, err
		}
		target = parsed
	}
	base := []pipeline.Option{
		pipeline.WithConcurrency(a.Config.Conversion.Concurrency),
		pipeline.WithTargetFormat(target),
		pipeline.WithProgress(a.Config.ProgressInterval(), a.Config.Conversion.ProgressStep, a.Config.Conversion.ProgressCeiling),
	}
	return pipeline.New(pipeline.Deps{
		Converter: conv,
		Prober:    prober,
		History:   a.History,
		Blobs:     a.Blobs,
		Gate:      a.Gate,
		Logger:    a.Logger,
	}, append(base, opts...)...)
}

// Close flushes history, closes the database, and releases the lock.
func (a *App) Close() error {
	var errs []error
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.KV != nil {
		if err := a.KV.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.unlock()
	return errors.Join(errs...)
}

func (a *App) unlock() {
	if a.lock == nil {
		return
	}
	if err := a.lock.Unlock(); err != nil {
		a.Logger.Warn("failed to release state lock", logging.Error(err))
	}
	a.lock = nil
}

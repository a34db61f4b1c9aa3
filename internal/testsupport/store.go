package testsupport

import (
	"testing"

	"mediaconv/internal/blobstore"
	"mediaconv/internal/config"
	"mediaconv/internal/history"
	"mediaconv/internal/kvstore"
)

// MustOpenKV opens the key-value store for cfg and registers cleanup.
func MustOpenKV(t testing.TB, cfg *config.Config) *kvstore.Store {
	t.Helper()
	store, err := kvstore.Open(cfg.StateDBPath())
	if err != nil {
		t.Fatalf("open kv store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// MustOpenBlobs opens the blob store for cfg.
func MustOpenBlobs(t testing.TB, cfg *config.Config) *blobstore.Store {
	t.Helper()
	store, err := blobstore.Open(cfg.Paths.BlobDir)
	if err != nil {
		t.Fatalf("open blob store: %v", err)
	}
	return store
}

// MustLoadHistory builds and loads a history store. Close is registered as
// cleanup and runs before the key-value store closes.
func MustLoadHistory(t testing.TB, kv *kvstore.Store, blobs *blobstore.Store, maxRecords int) *history.Store {
	t.Helper()
	store := history.New(kv, blobs, nil, history.WithMaxRecords(maxRecords))
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Load(t.Context()); err != nil {
		t.Fatalf("load history: %v", err)
	}
	return store
}

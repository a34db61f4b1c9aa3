package blobstore_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"mediaconv/internal/blobstore"
)

func openStore(t *testing.T) *blobstore.Store {
	t.Helper()
	store, err := blobstore.Open(filepath.Join(t.TempDir(), "media"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return store
}

func TestSaveLoadOverwrite(t *testing.T) {
	store := openStore(t)
	id := uuid.New()

	path, err := store.Save([]byte("one"), id)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !filepath.IsAbs(path) || filepath.Base(path) != id.String() {
		t.Fatalf("unexpected location %q", path)
	}
	if _, err := store.Save([]byte("two-two"), id); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	data, err := store.Load(id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != "two-two" {
		t.Fatalf("unexpected payload %q", data)
	}
	size, err := store.TotalSize()
	if err != nil || size != 7 {
		t.Fatalf("TotalSize = %d, %v; want 7", size, err)
	}
}

func TestLoadMissing(t *testing.T) {
	store := openStore(t)
	if _, err := store.Load(uuid.New()); !errors.Is(err, blobstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := openStore(t)
	id := uuid.New()
	if _, err := store.Save([]byte("x"), id); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(id); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if _, err := store.Load(id); !errors.Is(err, blobstore.ErrNotFound) {
		t.Fatalf("expected blob to be gone, got %v", err)
	}
}

func TestClearAllAndCounts(t *testing.T) {
	store := openStore(t)
	for i := 0; i < 4; i++ {
		if _, err := store.Save([]byte("abc"), uuid.New()); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(store.Dir(), ".stale.tmp-1"), []byte("zz"), 0o644); err != nil {
		t.Fatal(err)
	}

	count, err := store.Count()
	if err != nil || count != 4 {
		t.Fatalf("Count = %d, %v; want 4", count, err)
	}
	size, err := store.TotalSize()
	if err != nil || size != 12 {
		t.Fatalf("TotalSize = %d, %v; want 12", size, err)
	}

	if err := store.ClearAll(); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty directory, found %d entries", len(entries))
	}
	if size, _ := store.TotalSize(); size != 0 {
		t.Fatalf("expected zero size after clear, got %d", size)
	}
}

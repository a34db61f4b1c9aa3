// Package blobstore keeps conversion payloads on disk, one file per UUID.
package blobstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"mediaconv/internal/fileutil"
)

// ErrNotFound is returned by Load when no blob exists for the id.
var ErrNotFound = errors.New("blob not found")

// Store addresses blobs by UUID inside a single directory.
type Store struct {
	dir string
	// mu serializes ClearAll against Save so a clear never races a rename.
	mu sync.RWMutex
}

// Open returns a Store rooted at dir, creating the directory when missing.
func Open(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("blobstore: directory required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve blob dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &Store{dir: abs}, nil
}

// Dir returns the absolute blob directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file location for id whether or not the blob exists.
func (s *Store) Path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String())
}

// Save writes data under id, replacing any existing blob, and returns the
// absolute location.
func (s *Store) Save(data []byte, id uuid.UUID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	path := s.Path(id)
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save blob %s: %w", id, err)
	}
	return path, nil
}

// Load reads the blob stored under id.
func (s *Store) Load(id uuid.UUID) ([]byte, error) {
	data, err := os.ReadFile(s.Path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load blob %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load blob %s: %w", id, err)
	}
	return data, nil
}

// Delete removes the blob stored under id. A missing blob is not an error.
func (s *Store) Delete(id uuid.UUID) error {
	err := os.Remove(s.Path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", id, err)
	}
	return nil
}

// ClearAll removes every file in the blob directory, including leftover
// temp files from interrupted writes.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("list blob dir: %w", err)
	}
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("clear blobs: %w", errors.Join(errs...))
	}
	return nil
}

// TotalSize sums the sizes of all stored blobs.
func (s *Store) TotalSize() (int64, error) {
	var total int64
	err := s.walk(func(info fs.FileInfo) {
		total += info.Size()
	})
	return total, err
}

// Count reports how many blobs are stored.
func (s *Store) Count() (int, error) {
	count := 0
	err := s.walk(func(fs.FileInfo) { count++ })
	return count, err
}

func (s *Store) walk(fn func(fs.FileInfo)) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("list blob dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := uuid.Parse(entry.Name()); err != nil {
			continue
		}
		info, err := entry.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("stat blob %s: %w", entry.Name(), err)
		}
		fn(info)
	}
	return nil
}

package blobstore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediaconv/internal/logging"
)

// PruneResult contains the outcome of a prune pass.
type PruneResult struct {
	Removed []string
	Freed   int64
	Errors  []PruneError
}

// PruneError pairs a file path with its removal error.
type PruneError struct {
	Path  string
	Error error
}

// Prune removes blobs whose id is not in keep, along with temp files left by
// interrupted writes. Files modified within minAge are left alone.
func (s *Store) Prune(ctx context.Context, keep map[uuid.UUID]struct{}, minAge time.Duration, logger *slog.Logger) PruneResult {
	result := PruneResult{}
	if logger == nil {
		logger = logging.NewNop()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, PruneError{Path: s.dir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-minAge)
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		reason := ""
		if id, err := uuid.Parse(name); err == nil {
			if _, ok := keep[id]; ok {
				continue
			}
			reason = "orphaned"
		} else if strings.HasPrefix(name, ".") && strings.Contains(name, ".tmp-") {
			reason = "partial write"
		} else {
			continue
		}

		path := filepath.Join(s.dir, name)
		info, err := entry.Info()
		if err != nil {
			if !os.IsNotExist(err) {
				result.Errors = append(result.Errors, PruneError{Path: path, Error: err})
			}
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			result.Errors = append(result.Errors, PruneError{Path: path, Error: err})
			logger.Warn("failed to remove blob",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "blob_prune_failed"),
				logging.String(logging.FieldErrorHint, "check blob_dir permissions"),
			)
			continue
		}
		result.Removed = append(result.Removed, path)
		result.Freed += info.Size()
		logger.Info("removed blob",
			logging.String("path", path),
			logging.String("reason", reason),
			logging.Int64("bytes", info.Size()),
			logging.String(logging.FieldEventType, "blob_prune"),
		)
	}
	return result
}

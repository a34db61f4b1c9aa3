package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"mediaconv/internal/logging"
)

// RecordsKey is the key-value entry holding the encoded record list.
const RecordsKey = "history.records"

// DefaultMaxRecords caps the list when no option overrides it.
const DefaultMaxRecords = 100

// KV is the durable storage the history list is mirrored to.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Sync(ctx context.Context) error
}

// Blobs is the subset of the blob store the history needs.
type Blobs interface {
	Delete(id uuid.UUID) error
	ClearAll() error
}

// Option configures a Store.
type Option func(*Store)

// WithMaxRecords overrides the record cap. Values below one are ignored.
func WithMaxRecords(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxRecords = n
		}
	}
}

// WithReadOnly keeps the Store from writing to the key-value store. Load
// leaves an undecodable payload in place and record changes are not persisted.
// Use it when another process may own the history.
func WithReadOnly() Option {
	return func(s *Store) {
		s.readOnly = true
	}
}

// Store is the in-memory history list with asynchronous persistence.
type Store struct {
	kv         KV
	blobs      Blobs
	logger     *slog.Logger
	maxRecords int
	readOnly   bool

	mu      sync.Mutex
	records []Record
	loaded  bool
	closed  bool
	// seq counts mutations; written is the last seq the writer persisted.
	seq     uint64
	written uint64
	// writtenCh is closed and replaced after every completed write.
	writtenCh chan struct{}

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

// New builds a Store and starts its writer goroutine.
func New(kv KV, blobs Blobs, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Store{
		kv:         kv,
		blobs:      blobs,
		logger:     logging.NewComponentLogger(logger, "history"),
		maxRecords: DefaultMaxRecords,
		writtenCh:  make(chan struct{}),
		wake:       make(chan struct{}, 1),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.writer()
	return s
}

// MaxRecords returns the configured cap.
func (s *Store) MaxRecords() int { return s.maxRecords }

// Load reads the persisted list once. Later calls are no-ops. An undecodable
// payload is discarded and the list starts empty.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	data, ok, err := s.kv.Get(ctx, RecordsKey)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	var stored []Record
	if ok && len(data) > 0 {
		if decodeErr := json.Unmarshal(data, &stored); decodeErr != nil {
			logging.WarnWithContext(s.logger, "discarding undecodable history", "history_decode_failed",
				logging.Error(decodeErr),
				logging.String(logging.FieldErrorHint, "previous history entries are lost; blobs remain until cleared"),
			)
			stored = nil
			if !s.readOnly {
				if delErr := s.kv.Delete(ctx, RecordsKey); delErr != nil {
					s.logger.Warn("failed to delete undecodable history", logging.Error(delErr))
				}
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}
	// Records added before Load stay in front of the persisted ones.
	merged := append(s.records, stored...)
	if len(merged) > s.maxRecords {
		merged = merged[:s.maxRecords]
	}
	s.records = merged
	s.loaded = true
	if len(s.records) != len(stored) {
		s.markDirtyLocked()
	}
	s.logger.Debug("history loaded", logging.Int("records", len(s.records)))
	return nil
}

// Add inserts record at the head of the list and truncates to the cap.
func (s *Store) Add(record Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]Record{record.clone()}, s.records...)
	if len(s.records) > s.maxRecords {
		s.records = s.records[:s.maxRecords]
	}
	s.markDirtyLocked()
}

// Delete removes the record with id and its blobs. It reports whether a
// record was found.
func (s *Store) Delete(id uuid.UUID) bool {
	s.mu.Lock()
	index := -1
	for i, r := range s.records {
		if r.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return false
	}
	removed := s.records[index]
	s.records = append(s.records[:index:index], s.records[index+1:]...)
	s.markDirtyLocked()
	s.mu.Unlock()

	if s.blobs != nil {
		if removed.HasOriginal() {
			if err := s.blobs.Delete(removed.OriginalBlobID); err != nil {
				s.logger.Warn("failed to delete original blob",
					logging.String(logging.FieldBlobID, removed.OriginalBlobID.String()),
					logging.Error(err),
				)
			}
		}
		if err := s.blobs.Delete(removed.ConvertedBlobID); err != nil {
			s.logger.Warn("failed to delete converted blob",
				logging.String(logging.FieldBlobID, removed.ConvertedBlobID.String()),
				logging.Error(err),
			)
		}
	}
	return true
}

// ClearAll removes every blob and empties the list. The list is emptied even
// when blob removal fails; that error is returned.
func (s *Store) ClearAll() error {
	var blobErr error
	if s.blobs != nil {
		if err := s.blobs.ClearAll(); err != nil {
			blobErr = fmt.Errorf("clear history blobs: %w", err)
		}
	}
	s.mu.Lock()
	s.records = nil
	s.markDirtyLocked()
	s.mu.Unlock()
	return blobErr
}

// Records returns a copy of the list, most recent first.
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.clone()
	}
	return out
}

// Get returns the record with id.
func (s *Store) Get(id uuid.UUID) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == id {
			return r.clone(), true
		}
	}
	return Record{}, false
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Flush blocks until every mutation made before the call is persisted.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	target := s.seq
	s.mu.Unlock()
	for {
		s.mu.Lock()
		if s.written >= target || s.isStopped() {
			s.mu.Unlock()
			return nil
		}
		ch := s.writtenCh
		s.mu.Unlock()
		select {
		case <-ch:
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close flushes pending writes and stops the writer. It is safe to call more
// than once.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.Flush(context.Background())
	close(s.quit)
	<-s.done
	return err
}

func (s *Store) isStopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// markDirtyLocked bumps the mutation counter and wakes the writer. Callers
// hold s.mu.
func (s *Store) markDirtyLocked() {
	s.seq++
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store) writer() {
	defer close(s.done)
	for {
		select {
		case <-s.wake:
			s.persist()
		case <-s.quit:
			return
		}
	}
}

func (s *Store) persist() {
	s.mu.Lock()
	seq := s.seq
	if seq == s.written {
		s.mu.Unlock()
		return
	}
	snapshot := make([]Record, len(s.records))
	copy(snapshot, s.records)
	s.mu.Unlock()

	if s.readOnly {
		s.logger.Debug("read-only history; skipping write", logging.Int("records", len(snapshot)))
	} else if err := s.write(snapshot); err != nil {
		logging.WarnWithContext(s.logger, "history persistence failed", "history_persist_failed",
			logging.Error(err),
			logging.Int("records", len(snapshot)),
			logging.String(logging.FieldErrorHint, "in-memory history is intact; next change retries the write"),
		)
	}

	s.mu.Lock()
	s.written = seq
	close(s.writtenCh)
	s.writtenCh = make(chan struct{})
	s.mu.Unlock()
}

func (s *Store) write(records []Record) error {
	if s.kv == nil {
		return errors.New("no key-value store configured")
	}
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	ctx := context.Background()
	if err := s.kv.Set(ctx, RecordsKey, data); err != nil {
		return err
	}
	if err := s.kv.Sync(ctx); err != nil {
		return err
	}
	s.logger.Debug("history persisted", logging.Int("records", len(records)))
	return nil
}

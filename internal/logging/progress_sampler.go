package logging

import "sync"

// ProgressSampler suppresses repetitive progress logs while preserving signal
// when an item's percentage crosses a bucket boundary. Buckets are tracked per
// key so concurrently converting items do not reset each other.
type ProgressSampler struct {
	bucketSize float64

	mu   sync.Mutex
	last map[string]int
}

// NewProgressSampler constructs a sampler that emits when the percent crosses
// bucket boundaries (default 5%).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &ProgressSampler{bucketSize: bucketSize, last: make(map[string]int)}
}

// ShouldLog reports whether a progress event for key should be logged.
// Percent is clamped to [0, 100].
func (s *ProgressSampler) ShouldLog(key string, percent float64) bool {
	if s == nil {
		return true
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	bucket := int(percent / s.bucketSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	last, seen := s.last[key]
	if seen && bucket <= last {
		return false
	}
	s.last[key] = bucket
	return true
}

// Forget drops state for key (e.g. when the item leaves the converting state).
func (s *ProgressSampler) Forget(key string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	delete(s.last, key)
	s.mu.Unlock()
}

// Reset clears all sampler state.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.last = make(map[string]int)
	s.mu.Unlock()
}

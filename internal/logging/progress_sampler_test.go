package logging

import "testing"

func TestNewProgressSamplerDefaultsBucket(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 5},
		{"default bucket size for negative", -1, 5},
		{"custom bucket size", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
		})
	}
}

func TestProgressSamplerNilSampler(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog("item", 50) {
		t.Error("ShouldLog on nil sampler should always return true")
	}
	s.Reset()
	s.Forget("item")
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(10)

	if !s.ShouldLog("a", 0) {
		t.Fatal("first event should log")
	}
	if s.ShouldLog("a", 5) {
		t.Fatal("same bucket should not log")
	}
	if !s.ShouldLog("a", 12) {
		t.Fatal("crossing a bucket should log")
	}
	if s.ShouldLog("a", 11) {
		t.Fatal("regressing progress should not log")
	}
	if !s.ShouldLog("a", 150) {
		t.Fatal("clamped completion should log")
	}
}

func TestProgressSamplerTracksKeysIndependently(t *testing.T) {
	s := NewProgressSampler(10)
	s.ShouldLog("a", 55)
	if !s.ShouldLog("b", 5) {
		t.Fatal("second key should log its first event")
	}
	s.Forget("a")
	if !s.ShouldLog("a", 5) {
		t.Fatal("forgotten key should log again")
	}
	s.Reset()
	if !s.ShouldLog("b", 5) {
		t.Fatal("reset should clear all keys")
	}
}

package testsupport

import (
	"context"
	"sync"
	"time"

	"mediaconv/internal/engine"
)

// Converter is an in-memory engine.Converter that tracks concurrency.
type Converter struct {
	// Delay is how long each conversion takes.
	Delay time.Duration
	// Gate, when set, holds every conversion until it is closed.
	Gate chan struct{}

	mu        sync.Mutex
	failures  map[string]int
	calls     map[string]int
	active    int
	maxActive int
}

// NewConverter returns a Converter that takes delay per item.
func NewConverter(delay time.Duration) *Converter {
	return &Converter{
		Delay:    delay,
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

// FailNext makes the next n conversions of source fail.
func (c *Converter) FailNext(source string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[source] += n
}

// Convert implements engine.Converter. Output is "<target>:<source>".
func (c *Converter) Convert(ctx context.Context, source string, target engine.Format) ([]byte, error) {
	c.mu.Lock()
	c.calls[source]++
	c.active++
	if c.active > c.maxActive {
		c.maxActive = c.active
	}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.active--
		c.mu.Unlock()
	}()

	if c.Gate != nil {
		select {
		case <-c.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.Delay > 0 {
		select {
		case <-time.After(c.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	c.mu.Lock()
	fail := c.failures[source] > 0
	if fail {
		c.failures[source]--
	}
	c.mu.Unlock()
	if fail {
		return nil, &engine.Error{Kind: engine.ErrExportFailed, Detail: "simulated failure for " + source}
	}
	return []byte(string(target) + ":" + source), nil
}

// Calls reports how many times source was converted.
func (c *Converter) Calls(source string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[source]
}

// MaxActive reports the highest number of simultaneous conversions seen.
func (c *Converter) MaxActive() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxActive
}

// Prober returns fixed metadata for every source.
type Prober struct {
	Metadata engine.Metadata
	Err      error
}

// Probe implements engine.Prober.
func (p Prober) Probe(ctx context.Context, _ string) (engine.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return engine.Metadata{}, err
	}
	return p.Metadata, p.Err
}

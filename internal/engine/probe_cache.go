package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachingProber memoizes successful probes. Entries are keyed by path, size,
// and modification time, so an edited file is probed again.
type CachingProber struct {
	next  Prober
	cache *expirable.LRU[string, Metadata]
}

// NewCachingProber wraps next with an LRU of at most size entries that expire
// after ttl.
func NewCachingProber(next Prober, size int, ttl time.Duration) *CachingProber {
	if size <= 0 {
		size = 128
	}
	return &CachingProber{
		next:  next,
		cache: expirable.NewLRU[string, Metadata](size, nil, ttl),
	}
}

// Probe implements Prober.
func (c *CachingProber) Probe(ctx context.Context, source string) (Metadata, error) {
	key, ok := cacheKey(source)
	if ok {
		if meta, hit := c.cache.Get(key); hit {
			return meta, nil
		}
	}
	meta, err := c.next.Probe(ctx, source)
	if err != nil {
		return Metadata{}, err
	}
	if ok {
		c.cache.Add(key, meta)
	}
	return meta, nil
}

// Len reports how many probes are cached.
func (c *CachingProber) Len() int { return c.cache.Len() }

func cacheKey(source string) (string, bool) {
	path, err := localSource(source)
	if err != nil {
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano()), true
}

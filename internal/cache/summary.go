package cache

import (
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"dompet/internal/core"
)

// SummaryCache memoises summaries per filter key. Concurrent misses for the
// same key share one load. Invalidate bumps a generation so a load that
// started before a write never repopulates the cache afterwards.
type SummaryCache struct {
	lru   *LRUCache[core.Summary]
	group singleflight.Group

	mu  sync.Mutex
	gen uint64
}

func NewSummaryCache(maxSize int, ttl time.Duration) *SummaryCache {
	return &SummaryCache{lru: NewLRUCache[core.Summary](maxSize, ttl)}
}

// GetOrLoad returns the cached summary for key or runs load once for all
// concurrent callers. hit reports whether the value came from the cache.
func (c *SummaryCache) GetOrLoad(key string, load func() (core.Summary, error)) (s core.Summary, hit bool, err error) {
	if s, ok := c.lru.Get(key); ok {
		return s, true, nil
	}

	gen := c.generation()
	flight := strconv.FormatUint(gen, 10) + "/" + key
	v, err, _ := c.group.Do(flight, func() (interface{}, error) {
		s, err := load()
		if err != nil {
			return core.Summary{}, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.lru.Set(key, s)
		}
		c.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return core.Summary{}, false, err
	}
	return v.(core.Summary), false, nil
}

// Invalidate drops every cached summary.
func (c *SummaryCache) Invalidate() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	return c.lru.Purge()
}

func (c *SummaryCache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *SummaryCache) CleanExpired() int {
	return c.lru.CleanExpired()
}

func (c *SummaryCache) Size() int {
	return c.lru.Size()
}

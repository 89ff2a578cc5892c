// Package cache implements an in-process ErrorLinkCache.
package cache

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/example/ara/internal/ports/secondary"
)

// LinkCache caches pattern links per error ID.
// Concurrent misses on one error share a single load. A load that overlaps an
// Evict of its key is returned to its callers but not stored.
type LinkCache struct {
	mu          sync.RWMutex
	entries     map[int64][]secondary.PatternLink
	generations map[int64]uint64
	group       singleflight.Group
}

// NewLinkCache creates an empty cache.
func NewLinkCache() *LinkCache {
	return &LinkCache{
		entries:     make(map[int64][]secondary.PatternLink),
		generations: make(map[int64]uint64),
	}
}

// Get returns the cached links of errorID, calling load on a miss.
func (c *LinkCache) Get(ctx context.Context, errorID int64, load func(ctx context.Context) ([]secondary.PatternLink, error)) ([]secondary.PatternLink, error) {
	c.mu.RLock()
	links, ok := c.entries[errorID]
	generation := c.generations[errorID]
	c.mu.RUnlock()
	if ok {
		return links, nil
	}

	key := strconv.FormatInt(errorID, 10)
	v, err, _ := c.group.Do(key, func() (any, error) {
		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.generations[errorID] == generation {
			c.entries[errorID] = loaded
		}
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]secondary.PatternLink), nil
}

// Evict drops the entries of the given error IDs.
func (c *LinkCache) Evict(errorIDs ...int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range errorIDs {
		delete(c.entries, id)
		c.generations[id]++
		c.group.Forget(strconv.FormatInt(id, 10))
	}
}

// Len returns the number of cached errors.
func (c *LinkCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ secondary.ErrorLinkCache = (*LinkCache)(nil)

// memory.go is the in-process ViewRecorder used when Valkey is not
// configured and in tests. Entries expire lazily on access and during sweeps.
package cache

import (
	"context"
	"sync"
	"time"
)

// sweepEvery is how many writes happen between full expiry sweeps.
const sweepEvery = 256

// MemoryViewCache is a concurrency-safe map of view markers with expiry.
type MemoryViewCache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
	writes  int
}

// NewMemoryViewCache creates an empty cache. A nil now uses time.Now and a
// zero ttl uses DefaultViewTTL.
func NewMemoryViewCache(ttl time.Duration, now func() time.Time) *MemoryViewCache {
	if ttl == 0 {
		ttl = DefaultViewTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryViewCache{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		now:     now,
	}
}

// RecordView implements ViewRecorder.
func (c *MemoryViewCache) RecordView(_ context.Context, contentID, clientID string) (bool, error) {
	key := ViewKey(contentID, clientID)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if expires, ok := c.entries[key]; ok && now.Before(expires) {
		return true, nil
	}

	c.entries[key] = now.Add(c.ttl)
	c.writes++
	if c.writes%sweepEvery == 0 {
		c.sweep(now)
	}
	return false, nil
}

// Len returns the number of stored markers, expired ones included.
func (c *MemoryViewCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryViewCache) sweep(now time.Time) {
	for k, expires := range c.entries {
		if !now.Before(expires) {
			delete(c.entries, k)
		}
	}
}

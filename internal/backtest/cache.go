package backtest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCacheTTL is how long finished results stay retrievable.
const DefaultCacheTTL = time.Hour

type cacheEntry struct {
	result    *Result
	expiresAt time.Time
}

// ResultCache keeps finished backtests in memory so their ledgers can be
// fetched by id after the run request returned.
type ResultCache struct {
	mu    sync.RWMutex
	store map[string]*cacheEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewResultCache creates a cache whose expired entries are swept every
// cleanupEvery until ctx is done. cleanupEvery <= 0 disables the sweeper.
func NewResultCache(ctx context.Context, ttl, cleanupEvery time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &ResultCache{
		store: make(map[string]*cacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
	if cleanupEvery > 0 {
		go c.cleanup(ctx, cleanupEvery)
	}
	return c
}

// Put stores r under a new id, sets r.ID and returns it.
func (c *ResultCache) Put(r *Result) string {
	id := uuid.NewString()
	r.ID = id

	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[id] = &cacheEntry{result: r, expiresAt: c.now().Add(c.ttl)}
	return id
}

// Get retrieves a result if available and not expired
func (c *ResultCache) Get(id string) (*Result, bool) {
	if c == nil {
		return nil, false
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[id]
	if !exists || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.result, true
}

func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Clear removes all entries from the cache
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]*cacheEntry)
}

// Prune removes expired entries.
func (c *ResultCache) Prune() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.store {
		if now.After(entry.expiresAt) {
			delete(c.store, key)
		}
	}
}

func (c *ResultCache) cleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Prune()
		}
	}
}

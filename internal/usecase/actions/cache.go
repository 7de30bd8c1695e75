// Package actions session-scopes the chat capability menu data.
package actions

import (
	"context"
	"sync"

	"lexbridge/internal/domain"
)

// Fetcher loads permitted actions from the BFF.
type Fetcher interface {
	Actions(ctx context.Context, sessionID, entityType string) (*domain.ActionSet, error)
}

type cacheKey struct {
	sessionID  string
	entityType string
}

// Cache memoizes action fetches per (sessionID, entityType) so repeated menu
// opens are instant. Invalidation is explicit (Refetch clears everything) or
// implicit (a different key misses). No TTL, no LRU, no size bound: the key
// space is one entry per active session.
type Cache struct {
	fetcher Fetcher

	mu      sync.Mutex
	entries map[cacheKey]*domain.ActionSet
}

// NewCache creates an action cache over the fetcher.
func NewCache(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		entries: make(map[cacheKey]*domain.ActionSet),
	}
}

// Get returns the cached action set for the key, fetching on miss.
func (c *Cache) Get(ctx context.Context, sessionID, entityType string) (*domain.ActionSet, error) {
	key := cacheKey{sessionID: sessionID, entityType: entityType}

	c.mu.Lock()
	if set, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return set, nil
	}
	c.mu.Unlock()

	set, err := c.fetcher.Actions(ctx, sessionID, entityType)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = set
	c.mu.Unlock()
	return set, nil
}

// Refetch clears the whole cache and fetches the given key fresh.
func (c *Cache) Refetch(ctx context.Context, sessionID, entityType string) (*domain.ActionSet, error) {
	c.mu.Lock()
	c.entries = make(map[cacheKey]*domain.ActionSet)
	c.mu.Unlock()
	return c.Get(ctx, sessionID, entityType)
}

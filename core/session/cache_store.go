package session

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
)

const (
	cacheNumCounters = 1e5
	cacheMaxCost     = 1e4
	cacheBufferItems = 64
)

// CacheStore backs sessions with a ristretto TTL cache: bounded memory with
// admission-based eviction, suitable when conversation volume can outgrow a
// plain map. The cache's TTL enforces the same idle expiry contract as the
// memory store.
type CacheStore struct {
	cache  *ristretto.Cache
	maxAge time.Duration
}

// NewCacheStore creates a ristretto-backed store. maxAge <= 0 selects the
// default.
func NewCacheStore(maxAge time.Duration) (*CacheStore, error) {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheNumCounters,
		MaxCost:     cacheMaxCost,
		BufferItems: cacheBufferItems,
	})
	if err != nil {
		return nil, err
	}

	return &CacheStore{
		cache:  cache,
		maxAge: maxAge,
	}, nil
}

// Get returns the session for id, or (nil, nil) when absent, evicted, or
// expired.
func (c *CacheStore) Get(ctx context.Context, id string) (*Session, error) {
	v, ok := c.cache.Get(id)
	if !ok {
		return nil, nil
	}

	s, ok := v.(*Session)
	if !ok {
		c.cache.Del(id)
		return nil, nil
	}

	if time.Since(s.LastActiveAt) > c.maxAge {
		c.cache.Del(id)
		return nil, nil
	}

	return s, nil
}

// Set upserts the session with the idle TTL. Writes are waited on so a
// request's own follow-up read observes them.
func (c *CacheStore) Set(ctx context.Context, id string, s *Session) error {
	s.LastActiveAt = time.Now()
	c.cache.SetWithTTL(id, s, 1, c.maxAge)
	c.cache.Wait()
	return nil
}

// Delete removes the session if present.
func (c *CacheStore) Delete(ctx context.Context, id string) error {
	c.cache.Del(id)
	return nil
}

// Close releases the cache's resources.
func (c *CacheStore) Close() {
	c.cache.Close()
}

package registry

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/allegro/bigcache/v3"
)

// DefaultCacheTTL bounds how stale a cached endpoint may get.
const DefaultCacheTTL = 10 * time.Minute

// Cache is the read-through endpoint cache keyed by service path.
// Entries are replaced whole, never mutated, so concurrent readers never see a partial update.
type Cache struct {
	store *bigcache.BigCache
}

// NewCache creates a cache whose entries live for ttl.
func NewCache(ctx context.Context, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	cfg := bigcache.DefaultConfig(ttl)
	cfg.Shards = 16
	cfg.MaxEntriesInWindow = 1024
	cfg.MaxEntrySize = 512
	cfg.CleanWindow = ttl / 2
	cfg.Verbose = false

	store, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Cache{store: store}, nil
}

// Get returns the cached endpoint for path, if any.
func (c *Cache) Get(path string) (*Endpoint, bool) {
	data, err := c.store.Get(path)
	if err != nil {
		return nil, false
	}
	var endpoint Endpoint
	if err := json.Unmarshal(data, &endpoint); err != nil {
		return nil, false
	}
	return &endpoint, true
}

// Set replaces the cached endpoint for path.
func (c *Cache) Set(path string, endpoint Endpoint) error {
	data, err := json.Marshal(endpoint)
	if err != nil {
		return err
	}
	return c.store.Set(path, data)
}

// Delete drops the cached endpoint for path.
func (c *Cache) Delete(path string) error {
	if err := c.store.Delete(path); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return err
	}
	return nil
}

// Close stops the background cleaner.
func (c *Cache) Close() error {
	return c.store.Close()
}

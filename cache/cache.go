// Package cache wraps Ristretto for hot slug→link lookups on the redirect
// path.
package cache

import (
	"time"

	"github.com/ClipsonBusiness/tracking-system-sub001/config"
	"github.com/ClipsonBusiness/tracking-system-sub001/model"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog/log"
)

// linkCost approximates the in-memory size of a cached link entry.
const linkCost = 512

type Cache struct {
	client *ristretto.Cache
	ttl    time.Duration
}

// New creates a new cache instance with the given configuration
func New(cfg config.CacheConfig) (*Cache, error) {
	maxCost := int64(cfg.MaxSizeMB) * 1024 * 1024

	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(cfg.CounterSize),
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("max_size_mb", cfg.MaxSizeMB).
		Int("ttl_seconds", cfg.TTLSeconds).
		Msg("Link cache initialized")

	return &Cache{
		client: client,
		ttl:    time.Duration(cfg.TTLSeconds) * time.Second,
	}, nil
}

// GetLink retrieves a cached link by slug.
func (c *Cache) GetLink(slug string) (*model.Link, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	value, found := c.client.Get(slug)
	if !found {
		return nil, false
	}
	link, ok := value.(*model.Link)
	return link, ok
}

// SetLink caches a link under its slug with the configured TTL.
func (c *Cache) SetLink(link *model.Link) {
	if c == nil || c.client == nil || link == nil {
		return
	}
	c.client.SetWithTTL(link.Slug, link, linkCost, c.ttl)
}

// InvalidateLink drops a slug from the cache, e.g. after an admin edit.
func (c *Cache) InvalidateLink(slug string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(slug)
}

// Close cleanly shuts down the cache
func (c *Cache) Close() {
	if c != nil && c.client != nil {
		c.client.Close()
		log.Info().Msg("Link cache closed")
	}
}

package cache

import (
	"time"

	"github.com/HTwebsitesolution/quicklink-pro/config"
	"github.com/HTwebsitesolution/quicklink-pro/model"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog/log"
)

// Cache is a hot-path link cache in front of the store, backed by Ristretto.
// The resolver reads through it; any mutation of a link must invalidate its
// entry.
type Cache struct {
	client *ristretto.Cache
	ttl    time.Duration
}

// New creates a new cache instance with the given configuration
func New(cfg config.CacheConfig) (*Cache, error) {
	maxCost := int64(cfg.MaxSizeMB) * 1024 * 1024

	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(cfg.CounterSize), // keys tracked for admission frequency
		MaxCost:     maxCost,
		BufferItems: 64,
		Metrics:     true,
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

// GetLink retrieves a cached link by short code.
func (c *Cache) GetLink(shortCode string) (*model.Link, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	value, found := c.client.Get(shortCode)
	if !found {
		return nil, false
	}
	link, ok := value.(model.Link)
	if !ok {
		return nil, false
	}
	return &link, true
}

// SetLink stores a link with the configured TTL.
func (c *Cache) SetLink(link model.Link) {
	if c == nil || c.client == nil {
		return
	}
	// Cost approximates the serialized size of a link record.
	c.client.SetWithTTL(link.ShortCode, link, 1024, c.ttl)
}

// Delete removes a short code from the cache.
func (c *Cache) Delete(shortCode string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(shortCode)
}

// Close cleanly shuts down the cache
func (c *Cache) Close() {
	if c != nil && c.client != nil {
		c.client.Close()
		log.Info().Msg("Cache closed")
	}
}

// MetricsSnapshot is a point-in-time view of cache performance.
type MetricsSnapshot struct {
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	KeysAdded   uint64  `json:"keys_added"`
	KeysEvicted uint64  `json:"keys_evicted"`
	HitRatio    float64 `json:"hit_ratio"`
	TTLSeconds  int     `json:"ttl_seconds"`
}

// GetMetricsSnapshot returns current cache metrics as a snapshot
func (c *Cache) GetMetricsSnapshot() MetricsSnapshot {
	if c == nil || c.client == nil || c.client.Metrics == nil {
		return MetricsSnapshot{}
	}

	m := c.client.Metrics
	hits := m.Hits()
	misses := m.Misses()
	total := hits + misses

	hitRatio := 0.0
	if total > 0 {
		hitRatio = float64(hits) / float64(total)
	}

	return MetricsSnapshot{
		Hits:        hits,
		Misses:      misses,
		KeysAdded:   m.KeysAdded(),
		KeysEvicted: m.KeysEvicted(),
		HitRatio:    hitRatio,
		TTLSeconds:  int(c.ttl.Seconds()),
	}
}

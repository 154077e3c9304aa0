// Package cache provides byte-value caching for SDK components, most
// notably per-input embedding results in the ailang client.
//
// Two backends are available: an in-memory cache with TTL expiry and
// size-bounded LRU eviction, and a Redis cache built on go-redis. A
// disabled configuration yields a no-op cache so callers never branch
// on whether caching is on.
//
//	cfg := &config.CacheConfig{
//	    Enabled:    true,
//	    Type:       config.CacheTypeMemory,
//	    TTL:        config.Duration(5 * time.Minute),
//	    MaxEntries: 10000,
//	}
//
//	c, err := cache.New(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	err = c.Set(ctx, key, value, 0) // 0 = default TTL
//	value, err = c.Get(ctx, key)    // ErrCacheMiss when absent
//
// All implementations are safe for concurrent use. Access tokens are
// never stored here; the cache holds only derived API results.
package cache

package config

import "time"

// Cache backend types.
const (
	// CacheTypeMemory uses in-memory caching.
	CacheTypeMemory = "memory"

	// CacheTypeRedis uses Redis for caching.
	CacheTypeRedis = "redis"
)

// Default cache values.
const (
	DefaultCacheTTL            = 5 * time.Minute
	DefaultCacheMaxEntries     = 10000
	DefaultRedisPoolSize       = 10
	DefaultRedisConnectTimeout = 5 * time.Second
	DefaultRedisReadTimeout    = 3 * time.Second
	DefaultRedisWriteTimeout   = 3 * time.Second
	DefaultRedisKeyPrefix      = "relevai:"
)

// CacheConfig configures a cache backend.
type CacheConfig struct {
	// Enabled turns caching on. Disabled configurations produce a no-op
	// cache.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Type is the cache backend: "memory" or "redis". Empty means memory.
	Type string `yaml:"type,omitempty" json:"type,omitempty"`

	// TTL is the default time-to-live for entries. Zero means 5m.
	TTL Duration `yaml:"ttl,omitempty" json:"ttl,omitempty"`

	// MaxEntries bounds the memory backend. Zero means 10000.
	MaxEntries int `yaml:"maxEntries,omitempty" json:"maxEntries,omitempty"`

	// Redis configures the Redis backend.
	Redis *RedisCacheConfig `yaml:"redis,omitempty" json:"redis,omitempty"`
}

// RedisCacheConfig configures the Redis cache backend.
type RedisCacheConfig struct {
	// URL is the connection URL:
	// redis://[user:password@]host:port[/db].
	URL string `yaml:"url" json:"url"`

	// PoolSize is the maximum number of pooled connections.
	PoolSize int `yaml:"poolSize,omitempty" json:"poolSize,omitempty"`

	ConnectTimeout Duration `yaml:"connectTimeout,omitempty" json:"connectTimeout,omitempty"`
	ReadTimeout    Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout   Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`

	// KeyPrefix is prepended to every cache key. Empty means "relevai:".
	KeyPrefix string `yaml:"keyPrefix,omitempty" json:"keyPrefix,omitempty"`

	// HashKeys stores SHA256-hashed keys instead of raw ones, keeping
	// arbitrarily long keys within Redis limits.
	HashKeys bool `yaml:"hashKeys,omitempty" json:"hashKeys,omitempty"`
}

// DefaultCacheConfig returns a disabled memory cache configuration.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Enabled:    false,
		Type:       CacheTypeMemory,
		TTL:        Duration(DefaultCacheTTL),
		MaxEntries: DefaultCacheMaxEntries,
	}
}

// DefaultRedisCacheConfig returns default Redis cache configuration.
func DefaultRedisCacheConfig() *RedisCacheConfig {
	return &RedisCacheConfig{
		PoolSize:       DefaultRedisPoolSize,
		ConnectTimeout: Duration(DefaultRedisConnectTimeout),
		ReadTimeout:    Duration(DefaultRedisReadTimeout),
		WriteTimeout:   Duration(DefaultRedisWriteTimeout),
		KeyPrefix:      DefaultRedisKeyPrefix,
	}
}

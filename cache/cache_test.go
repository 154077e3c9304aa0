package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relev-ai/relevai-go/config"
	"github.com/relev-ai/relevai-go/observability"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil config yields disabled cache", func(t *testing.T) {
		t.Parallel()

		c, err := New(nil, nil)
		require.NoError(t, err)
		_, err = c.Get(context.Background(), "k")
		assert.ErrorIs(t, err, ErrCacheDisabled)
	})

	t.Run("disabled config yields disabled cache", func(t *testing.T) {
		t.Parallel()

		c, err := New(&config.CacheConfig{Enabled: false}, nil)
		require.NoError(t, err)
		err = c.Set(context.Background(), "k", []byte("v"), 0)
		assert.ErrorIs(t, err, ErrCacheDisabled)
	})

	t.Run("memory by default", func(t *testing.T) {
		t.Parallel()

		c, err := New(&config.CacheConfig{Enabled: true}, observability.NopLogger())
		require.NoError(t, err)
		defer func() { require.NoError(t, c.Close()) }()

		assert.IsType(t, &memoryCache{}, c)
	})

	t.Run("explicit memory type", func(t *testing.T) {
		t.Parallel()

		c, err := New(&config.CacheConfig{
			Enabled: true,
			Type:    config.CacheTypeMemory,
		}, nil)
		require.NoError(t, err)
		defer func() { require.NoError(t, c.Close()) }()

		assert.IsType(t, &memoryCache{}, c)
	})

	t.Run("redis without URL fails", func(t *testing.T) {
		t.Parallel()

		_, err := New(&config.CacheConfig{
			Enabled: true,
			Type:    config.CacheTypeRedis,
		}, nil)
		require.Error(t, err)
	})

	t.Run("unknown type fails", func(t *testing.T) {
		t.Parallel()

		_, err := New(&config.CacheConfig{
			Enabled: true,
			Type:    "memcached",
		}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown cache type")
	})
}

func TestDisabled(t *testing.T) {
	t.Parallel()

	c := Disabled()
	ctx := context.Background()

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheDisabled)

	assert.ErrorIs(t, c.Set(ctx, "k", []byte("v"), time.Minute), ErrCacheDisabled)
	assert.ErrorIs(t, c.Delete(ctx, "k"), ErrCacheDisabled)

	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, c.Close())
}

func TestStats_HitRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		stats Stats
		want  float64
	}{
		{
			name: "no traffic",
			want: 0,
		},
		{
			name:  "all hits",
			stats: Stats{Hits: 10},
			want:  100,
		},
		{
			name:  "half and half",
			stats: Stats{Hits: 5, Misses: 5},
			want:  50,
		},
		{
			name:  "all misses",
			stats: Stats{Misses: 7},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.InDelta(t, tt.want, tt.stats.HitRate(), 0.001)
		})
	}
}

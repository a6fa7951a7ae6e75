package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestCache creates a CacheService backed by a test Redis instance.
func setupTestCache(t *testing.T, ttl time.Duration) (*CacheService, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewCacheService(NewRedisCacheFromClient(client), ttl)
	return cache, mr
}

func TestGenerateCacheKey(t *testing.T) {
	cache, _ := setupTestCache(t, time.Minute)

	t.Run("joins type and params with colons", func(t *testing.T) {
		key := cache.GenerateCacheKey(CacheKeyProject, "user-1", "my-project")
		assert.Equal(t, "project:user-1:my-project", key)
	})

	t.Run("lowercases params", func(t *testing.T) {
		key := cache.GenerateProjectKey("User-1", "My-Project")
		assert.Equal(t, "project:user-1:my-project", key)
	})

	t.Run("summary keys use their own prefix", func(t *testing.T) {
		key := cache.GenerateSummaryKey("user-1", "my-project")
		assert.Equal(t, "summary:user-1:my-project", key)
	})
}

func TestCacheSetGet(t *testing.T) {
	cache, _ := setupTestCache(t, time.Minute)
	ctx := context.Background()

	type view struct {
		ProjectName string  `json:"projectName"`
		Score       float64 `json:"score"`
	}

	t.Run("round-trips JSON values", func(t *testing.T) {
		err := cache.Set(ctx, "project:u1:p1", &view{ProjectName: "p1", Score: 82.5})
		require.NoError(t, err)

		var got view
		found, err := cache.Get(ctx, "project:u1:p1", &got)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "p1", got.ProjectName)
		assert.Equal(t, 82.5, got.Score)
	})

	t.Run("missing key reports not found without error", func(t *testing.T) {
		var got view
		found, err := cache.Get(ctx, "project:u1:absent", &got)
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestCacheExpiry(t *testing.T) {
	cache, mr := setupTestCache(t, time.Second)
	ctx := context.Background()

	err := cache.Set(ctx, "summary:u1:p1", map[string]int{"toolsRun": 3})
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	var got map[string]int
	found, err := cache.Get(ctx, "summary:u1:p1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "project:u1:p1", "a"))
	require.NoError(t, cache.Set(ctx, "summary:u1:p1", "b"))

	err := cache.Invalidate(ctx, "project:u1:p1", "summary:u1:p1")
	require.NoError(t, err)

	var got string
	found, err := cache.Get(ctx, "project:u1:p1", &got)
	require.NoError(t, err)
	assert.False(t, found)

	t.Run("no keys is a no-op", func(t *testing.T) {
		assert.NoError(t, cache.Invalidate(ctx))
	})
}

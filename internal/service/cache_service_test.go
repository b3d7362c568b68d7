package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/treestatus-api/internal/models"
	"github.com/noah-isme/treestatus-api/pkg/cache"
)

func TestCacheServiceRoundTripOverRedis(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backend := cache.NewRedisBackend(client, map[string]string{"key_prefix": "test:"})
	svc := NewCacheService(backend, NewMetricsService(), time.Minute, zap.NewNop())
	ctx := context.Background()

	var tree models.Tree
	hit, err := svc.Get(ctx, treeCacheKey("try"), &tree)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, treeCacheKey("try"), models.NewTree("try"), 0))
	assert.True(t, srv.Exists("test:tree:try"))
	assert.Equal(t, time.Minute, srv.TTL("test:tree:try"))

	hit, err = svc.Get(ctx, treeCacheKey("try"), &tree)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, models.NewTree("try"), tree)

	require.NoError(t, svc.Invalidate(ctx, treeCacheKeys([]string{"try"})...))
	assert.False(t, srv.Exists("test:tree:try"))
}

func TestCacheServiceTreatsGarbageAsMiss(t *testing.T) {
	backend := newMemoryBackend(t)
	svc := NewCacheService(backend, nil, 0, nil)
	ctx := context.Background()

	_, err := backend.Set(ctx, treeListCacheKey, "{not json", time.Minute)
	require.NoError(t, err)

	var trees []models.Tree
	hit, err := svc.Get(ctx, treeListCacheKey, &trees)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceDisabled(t *testing.T) {
	var svc *CacheService
	hit, err := svc.Get(context.Background(), "k", &struct{}{})
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Set(context.Background(), "k", 1, 0))
	require.NoError(t, svc.Invalidate(context.Background(), "k"))
}

func TestTreeNamedListDoesNotShareTheListEntry(t *testing.T) {
	svc := NewCacheService(newMemoryBackend(t), nil, time.Minute, nil)
	ctx := context.Background()
	require.NotEqual(t, treeListCacheKey, treeCacheKey("list"))

	listed := []models.Tree{models.NewTree("autoland"), models.NewTree("list")}
	require.NoError(t, svc.Set(ctx, treeListCacheKey, listed, 0))
	require.NoError(t, svc.Set(ctx, treeCacheKey("list"), models.NewTree("list"), 0))

	var trees []models.Tree
	hit, err := svc.Get(ctx, treeListCacheKey, &trees)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, listed, trees)

	var tree models.Tree
	hit, err = svc.Get(ctx, treeCacheKey("list"), &tree)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "list", tree.Tree)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheServiceRoundTrip(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(newMemoryCache(), metrics, 0, nil, true)
	ctx := context.Background()

	var out map[string]int
	hit, err := svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "k", map[string]int{"a": 1}, time.Minute))
	hit, err = svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, out["a"])

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
}

func TestCacheServiceDeleteAndInvalidate(t *testing.T) {
	store := newMemoryCache()
	svc := NewCacheService(store, nil, time.Minute, nil, true)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, TutoringCardKey("a"), 1, 0))
	require.NoError(t, svc.Set(ctx, TutoringCardKey("b"), 2, 0))

	require.NoError(t, svc.Delete(ctx, TutoringCardKey("a")))
	assert.False(t, store.has(TutoringCardKey("a")))

	require.NoError(t, svc.Invalidate(ctx, "tutoring:card:*"))
	assert.False(t, store.has(TutoringCardKey("b")))
}

func TestCacheServiceDisabled(t *testing.T) {
	store := newMemoryCache()
	svc := NewCacheService(store, nil, time.Minute, nil, false)
	ctx := context.Background()

	assert.False(t, svc.Enabled())
	require.NoError(t, svc.Set(ctx, "k", 1, 0))
	assert.False(t, store.has("k"))

	var nilSvc *CacheService
	hit, err := nilSvc.Get(ctx, "k", new(int))
	assert.NoError(t, err)
	assert.False(t, hit)
}

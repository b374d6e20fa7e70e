package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenith-events/zenith/internal/domain"
	rediscache "github.com/zenith-events/zenith/internal/infrastructure/redis"
)

func newCache(t *testing.T) (*rediscache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return rediscache.New(mr.Addr(), "", 0), mr
}

func TestEventStatus_SetGetAndMiss(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()

	_, err := cache.GetEventStatus(ctx, "ev-1")
	require.True(t, errors.Is(err, domain.ErrCacheMiss))

	require.NoError(t, cache.SetEventStatus(ctx, "ev-1", domain.EventApproved))
	got, err := cache.GetEventStatus(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, domain.EventApproved, got)
}

func TestEventStatus_GarbageValueReadsAsMiss(t *testing.T) {
	cache, mr := newCache(t)
	require.NoError(t, mr.Set("event:status:ev-1", "Weird"))

	_, err := cache.GetEventStatus(context.Background(), "ev-1")
	assert.True(t, errors.Is(err, domain.ErrCacheMiss))
}

func TestAllowRequest_FixedWindow(t *testing.T) {
	cache, mr := newCache(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := cache.AllowRequest(ctx, "1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}

	ok, err := cache.AllowRequest(ctx, "1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// window expiry resets the counter
	mr.FastForward(2 * time.Minute)
	ok, err = cache.AllowRequest(ctx, "1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckAndMark_Dedupe(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()

	dup, err := cache.CheckAndMark(ctx, "m-1")
	require.NoError(t, err)
	assert.False(t, dup)

	dup, err = cache.CheckAndMark(ctx, "m-1")
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = cache.CheckAndMark(ctx, "m-2")
	require.NoError(t, err)
	assert.False(t, dup)
}

package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/begrat/storefront-backend/internal/infra/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGetOrLoadCachesPositiveResult(t *testing.T) {
	hostCache := cache.NewHostCache(10, time.Minute)
	tenantID := uuid.New()
	var loads int

	load := func(ctx context.Context) (uuid.UUID, bool, error) {
		loads++
		return tenantID, true, nil
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		entry, err := hostCache.GetOrLoad(ctx, "acme.begrat.com", load)
		require.NoError(t, err)
		require.True(t, entry.Found)
		require.Equal(t, tenantID, entry.TenantID)
	}
	require.Equal(t, 1, loads, "repeat hits must be served from cache")
}

func TestGetOrLoadCachesNegativeResult(t *testing.T) {
	hostCache := cache.NewHostCache(10, time.Minute)
	var loads int

	load := func(ctx context.Context) (uuid.UUID, bool, error) {
		loads++
		return uuid.Nil, false, nil
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		entry, err := hostCache.GetOrLoad(ctx, "nobody.begrat.com", load)
		require.NoError(t, err)
		require.False(t, entry.Found)
	}
	require.Equal(t, 1, loads, "a known miss must not re-query the store")
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	hostCache := cache.NewHostCache(10, time.Minute)
	calls := 0

	_, err := hostCache.GetOrLoad(context.Background(), "flaky.begrat.com", func(ctx context.Context) (uuid.UUID, bool, error) {
		calls++
		return uuid.Nil, false, errors.New("store down")
	})
	require.Error(t, err)

	tenantID := uuid.New()
	entry, err := hostCache.GetOrLoad(context.Background(), "flaky.begrat.com", func(ctx context.Context) (uuid.UUID, bool, error) {
		calls++
		return tenantID, true, nil
	})
	require.NoError(t, err)
	require.Equal(t, tenantID, entry.TenantID)
	require.Equal(t, 2, calls, "failed load must be retried on the next request")
}

func TestInvalidateDropsEntry(t *testing.T) {
	hostCache := cache.NewHostCache(10, time.Minute)
	first := uuid.New()
	second := uuid.New()
	answers := []uuid.UUID{first, second}
	var loads int

	load := func(ctx context.Context) (uuid.UUID, bool, error) {
		answer := answers[loads]
		loads++
		return answer, true, nil
	}

	ctx := context.Background()
	entry, err := hostCache.GetOrLoad(ctx, "moving.begrat.com", load)
	require.NoError(t, err)
	require.Equal(t, first, entry.TenantID)

	hostCache.Invalidate("moving.begrat.com", "")

	entry, err = hostCache.GetOrLoad(ctx, "moving.begrat.com", load)
	require.NoError(t, err)
	require.Equal(t, second, entry.TenantID)
}

func TestConcurrentMissesCollapse(t *testing.T) {
	hostCache := cache.NewHostCache(10, time.Minute)
	tenantID := uuid.New()
	var loads atomic.Int32
	release := make(chan struct{})

	load := func(ctx context.Context) (uuid.UUID, bool, error) {
		loads.Add(1)
		<-release
		return tenantID, true, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := hostCache.GetOrLoad(context.Background(), "busy.begrat.com", load)
			require.NoError(t, err)
			require.Equal(t, tenantID, entry.TenantID)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), loads.Load(), "concurrent misses for one host must share a single load")
}

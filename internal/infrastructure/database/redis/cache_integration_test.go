//go:build integration

// Integration tests for the result cache. They require Docker and are gated
// behind the "integration" build tag.
package redis_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/calledstrike/szas/internal/infrastructure/database/redis"
	"github.com/calledstrike/szas/internal/infrastructure/monitoring/logging"
)

func startRedis(t *testing.T) redis.Cache {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := redis.NewClient(&redis.Config{
		Addr: fmt.Sprintf("%s:%s", host, port.Port()),
	}, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return redis.NewCache(client, logging.NewNop())
}

type cachedScore struct {
	SZAS  float64 `json:"szas"`
	Takes int     `json:"takes"`
}

func TestCacheRoundTrip(t *testing.T) {
	cache := startRedis(t)
	ctx := context.Background()

	want := cachedScore{SZAS: 0.73, Takes: 450}
	require.NoError(t, cache.Set(ctx, "score:b=1", want, time.Minute))

	var got cachedScore
	require.NoError(t, cache.Get(ctx, "score:b=1", &got))
	assert.Equal(t, want, got)

	exists, err := cache.Exists(ctx, "score:b=1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCacheMiss(t *testing.T) {
	cache := startRedis(t)

	var got cachedScore
	err := cache.Get(context.Background(), "score:absent", &got)
	assert.ErrorIs(t, err, redis.ErrCacheMiss)
}

func TestGetOrSetLoadsOncePerKey(t *testing.T) {
	cache := startRedis(t)
	ctx := context.Background()

	var mu sync.Mutex
	loads := 0
	loader := func(ctx context.Context) (interface{}, error) {
		mu.Lock()
		loads++
		mu.Unlock()
		time.Sleep(50 * time.Millisecond)
		return cachedScore{SZAS: 0.5}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var got cachedScore
			assert.NoError(t, cache.GetOrSet(ctx, "score:shared", &got, time.Minute, loader))
			assert.InDelta(t, 0.5, got.SZAS, 1e-9)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, loads, "singleflight should collapse concurrent loads")

	// Subsequent call hits the cache without the loader.
	var got cachedScore
	require.NoError(t, cache.GetOrSet(ctx, "score:shared", &got, time.Minute,
		func(ctx context.Context) (interface{}, error) {
			t.Error("loader should not run on a warm key")
			return nil, nil
		}))
}

func TestDeleteByPrefix(t *testing.T) {
	cache := startRedis(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, cache.Set(ctx, fmt.Sprintf("score:%d", i), cachedScore{}, time.Minute))
	}
	require.NoError(t, cache.Set(ctx, "influence:1", cachedScore{}, time.Minute))

	deleted, err := cache.DeleteByPrefix(ctx, "score:")
	require.NoError(t, err)
	assert.EqualValues(t, 5, deleted)

	exists, err := cache.Exists(ctx, "influence:1")
	require.NoError(t, err)
	assert.True(t, exists)
}

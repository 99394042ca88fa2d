//go:build integration

package notification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "could not connect to docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "could not start redis")
	t.Cleanup(func() { _ = pool.Purge(resource) })

	client := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("127.0.0.1:%s", resource.GetPort("6379/tcp")),
	})
	pool.MaxWait = time.Minute
	require.NoError(t, pool.Retry(func() error {
		return client.Ping(context.Background()).Err()
	}))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisThrottle(t *testing.T) {
	ctx := context.Background()
	throttle := NewRedisThrottleWithClient(startRedis(t))
	require.NoError(t, throttle.Ping(ctx))

	ok, err := throttle.Allow(ctx, "g1:a:b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = throttle.Allow(ctx, "g1:a:b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, throttle.Release(ctx, "g1:a:b"))
	ok, err = throttle.Allow(ctx, "g1:a:b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, err := throttle.client.TTL(ctx, throttleKeyPrefix+"g1:a:b").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestNewRedisThrottle_BadURL(t *testing.T) {
	_, err := NewRedisThrottle("not-a-url")
	assert.Error(t, err)
}

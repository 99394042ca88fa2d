package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const throttleKeyPrefix = "reminder:"

// MemoryThrottle keeps reservations in process memory. Suitable for a
// single instance only.
type MemoryThrottle struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryThrottle creates an empty in-memory throttle
func NewMemoryThrottle() *MemoryThrottle {
	return &MemoryThrottle{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Allow reserves key for window unless an unexpired reservation exists
func (t *MemoryThrottle) Allow(ctx context.Context, key string, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if expiresAt, ok := t.entries[key]; ok && now.Before(expiresAt) {
		return false, nil
	}
	t.entries[key] = now.Add(window)
	t.sweep(now)
	return true, nil
}

// Release drops the reservation for key
func (t *MemoryThrottle) Release(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
	return nil
}

// sweep removes expired reservations; caller holds mu.
func (t *MemoryThrottle) sweep(now time.Time) {
	for key, expiresAt := range t.entries {
		if !now.Before(expiresAt) {
			delete(t.entries, key)
		}
	}
}

// RedisThrottle shares reservations between instances through Redis.
type RedisThrottle struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisThrottle connects to the Redis server at url
func NewRedisThrottle(url string) (*RedisThrottle, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisThrottleWithClient(client), nil
}

// NewRedisThrottleWithClient creates a throttle on an existing client
func NewRedisThrottleWithClient(client *redis.Client) *RedisThrottle {
	return &RedisThrottle{client: client, keyPrefix: throttleKeyPrefix}
}

// Allow uses SETNX with a TTL so the check and the reservation are atomic
func (t *RedisThrottle) Allow(ctx context.Context, key string, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}
	ok, err := t.client.SetNX(ctx, t.keyPrefix+key, "1", window).Result()
	if err != nil {
		return false, fmt.Errorf("reserve reminder slot: %w", err)
	}
	return ok, nil
}

// Release deletes the reservation for key
func (t *RedisThrottle) Release(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, t.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release reminder slot: %w", err)
	}
	return nil
}

// Ping checks the connection for health probes
func (t *RedisThrottle) Ping(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (t *RedisThrottle) Close() error {
	return t.client.Close()
}

// Package cache provides the Redis layer backing API key auth lookups and
// the registration and verification rate-limit windows.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pool sizing defaults fit a single API instance; busier deployments raise
// them through REDIS_POOL_SIZE and REDIS_MIN_IDLE_CONNS.
const (
	defaultPoolSize     = 10
	defaultMinIdleConns = 2
)

// PoolOptions tunes the Redis connection pool. Zero values fall back to the
// package defaults.
type PoolOptions struct {
	PoolSize     int
	MinIdleConns int
}

func (p PoolOptions) withDefaults() PoolOptions {
	if p.PoolSize <= 0 {
		p.PoolSize = defaultPoolSize
	}
	if p.MinIdleConns <= 0 {
		p.MinIdleConns = defaultMinIdleConns
	}
	return p
}

// Cache wraps a Redis client with the auth-context and rate-limit window
// operations the services need.
type Cache struct {
	client *redis.Client
}

// New connects to Redis at redisURL and verifies the connection with a ping.
func New(ctx context.Context, redisURL string, pool PoolOptions) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	pool = pool.withDefaults()
	opt.PoolSize = pool.PoolSize
	opt.MinIdleConns = pool.MinIdleConns
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client.
// Use sparingly - prefer adding methods to Cache.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Package redisstore wraps the Redis operations used by the covering cache.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	maintnotifications "github.com/redis/go-redis/v9/maintnotifications"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/observability"
)

type Option func(*redis.Options)

func WithPoolSize(n int) Option {
	return func(o *redis.Options) { o.PoolSize = n }
}

func WithDialTimeout(d time.Duration) Option {
	return func(o *redis.Options) { o.DialTimeout = d }
}

// WithIOTimeout sets both the read and the write timeout.
func WithIOTimeout(d time.Duration) Option {
	return func(o *redis.Options) {
		o.ReadTimeout = d
		o.WriteTimeout = d
	}
}

// Client stores serialized coverings. Every call is timed into the cache_op
// metrics under its op name.
type Client struct {
	rdb *redis.Client
}

// New connects to addr and pings it; the client is closed again when the
// ping fails.
func New(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	ro := &redis.Options{
		Addr:         addr,
		PoolSize:     32,
		MinIdleConns: 2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	}
	for _, f := range opts {
		f(ro)
	}

	c := &Client{rdb: redis.NewClient(ro)}
	if err := c.Ping(ctx); err != nil {
		_ = c.rdb.Close()
		return nil, err
	}
	return c, nil
}

func observe(op string, start time.Time, err error) {
	observability.ObserveCacheOp(op, err, time.Since(start).Seconds())
}

// Get returns the value stored at key; ok is false when the key is absent.
func (c *Client) Get(ctx context.Context, key string) (val []byte, ok bool, err error) {
	start := time.Now()
	val, err = c.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		observe("get", start, nil)
		return nil, false, nil
	case err != nil:
		observe("get", start, err)
		return nil, false, fmt.Errorf("redis GET %q: %w", key, err)
	}
	observe("get", start, nil)
	return val, true, nil
}

// Set stores val under key; ttl <= 0 keeps the key until it is deleted.
func (c *Client) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	start := time.Now()
	if ttl < 0 {
		ttl = 0
	}
	err := c.rdb.Set(ctx, key, val, ttl).Err()
	observe("set", start, err)
	if err != nil {
		return fmt.Errorf("redis SET %q: %w", key, err)
	}
	return nil
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	start := time.Now()
	err := c.rdb.Del(ctx, keys...).Err()
	observe("del", start, err)
	if err != nil {
		return fmt.Errorf("redis DEL %d keys: %w", len(keys), err)
	}
	return nil
}

// TTL returns the remaining time to live of key, or a negative duration when
// the key has no expiry or does not exist.
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	start := time.Now()
	d, err := c.rdb.TTL(ctx, key).Result()
	observe("ttl", start, err)
	if err != nil {
		return 0, fmt.Errorf("redis TTL %q: %w", key, err)
	}
	return d, nil
}

// Ping checks the connection; used by readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	start := time.Now()
	err := c.rdb.Ping(ctx).Err()
	observe("ping", start, err)
	if err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if err := c.rdb.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}

package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// TouchSession persists a session token and refreshes its TTL. Called on
// every request so active sessions never expire mid-browse.
func (c *Client) TouchSession(ctx context.Context, token string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("session:%s", token), time.Now().Unix(), ttl).Err()
}

// SessionExists reports whether a session token is known
func (c *Client) SessionExists(ctx context.Context, token string) (bool, error) {
	n, err := c.rdb.Exists(ctx, fmt.Sprintf("session:%s", token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetCartCount returns the cached cart item count for a session. A cache
// miss returns ok=false; the caller falls back to the store.
func (c *Client) GetCartCount(ctx context.Context, token string) (int, bool, error) {
	count, err := c.rdb.Get(ctx, fmt.Sprintf("cart-count:%s", token)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

// SetCartCount caches the cart item count for a session
func (c *Client) SetCartCount(ctx context.Context, token string, count int, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("cart-count:%s", token), count, ttl).Err()
}

// InvalidateCartCount drops the cached count after a cart mutation
func (c *Client) InvalidateCartCount(ctx context.Context, token string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("cart-count:%s", token)).Err()
}

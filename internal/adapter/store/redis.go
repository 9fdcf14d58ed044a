package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisMembershipCache implements port.MembershipCache with expiring keys.
type RedisMembershipCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisMembershipCache connects to redisURL and returns a cache whose
// entries live for ttl.
func NewRedisMembershipCache(redisURL string, ttl time.Duration) (*RedisMembershipCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisMembershipCacheWithClient(client, ttl), nil
}

// NewRedisMembershipCacheWithClient creates a cache from an existing client.
func NewRedisMembershipCacheWithClient(client *redis.Client, ttl time.Duration) *RedisMembershipCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisMembershipCache{client: client, prefix: "membership:", ttl: ttl}
}

func (c *RedisMembershipCache) key(channelID, userID string) string {
	return c.prefix + channelID + ":" + userID
}

// Seen reports whether userID was ensured in channelID within the TTL.
func (c *RedisMembershipCache) Seen(ctx context.Context, channelID, userID string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(channelID, userID)).Result()
	if err != nil {
		return false, fmt.Errorf("lookup membership: %w", err)
	}
	return n > 0, nil
}

// Remember records that userID is a member of channelID.
func (c *RedisMembershipCache) Remember(ctx context.Context, channelID, userID string) error {
	if err := c.client.Set(ctx, c.key(channelID, userID), "1", c.ttl).Err(); err != nil {
		return fmt.Errorf("remember membership: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (c *RedisMembershipCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisMembershipCache) Close() error {
	return c.client.Close()
}

package presence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const activeUsersKey = "active_users"

// RedisTracker keeps the active-user set in Redis so other marketplace
// services can read it.
type RedisTracker struct {
	client *redis.Client
}

// NewRedisTracker connects to Redis and verifies the connection.
func NewRedisTracker(ctx context.Context, redisURL string) (*RedisTracker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisTracker{client: client}, nil
}

// Connected adds the user to the active set.
func (t *RedisTracker) Connected(ctx context.Context, userID string) error {
	return t.client.SAdd(ctx, activeUsersKey, userID).Err()
}

// Disconnected removes the user from the active set.
func (t *RedisTracker) Disconnected(ctx context.Context, userID string) error {
	return t.client.SRem(ctx, activeUsersKey, userID).Err()
}

// ActiveUsers returns every user id in the active set.
func (t *RedisTracker) ActiveUsers(ctx context.Context) ([]string, error) {
	return t.client.SMembers(ctx, activeUsersKey).Result()
}

// Online reports whether the user id is in the active set.
func (t *RedisTracker) Online(ctx context.Context, userID string) (bool, error) {
	return t.client.SIsMember(ctx, activeUsersKey, userID).Result()
}

// Close releases the Redis connection.
func (t *RedisTracker) Close() error {
	return t.client.Close()
}

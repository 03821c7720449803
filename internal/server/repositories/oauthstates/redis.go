package oauthstates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "oauth_state:"

// RedisRepository keeps state values as Redis keys with a TTL. Expiry is
// enforced by Redis itself; GETDEL makes consumption atomic, so concurrent
// callbacks with the same state cannot both validate.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository constructs a repository over the given client.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) Save(ctx context.Context, state string, ttl time.Duration) error {
	if err := r.client.Set(ctx, keyPrefix+state, time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) Consume(ctx context.Context, state string) (bool, error) {
	err := r.client.GetDel(ctx, keyPrefix+state).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis error: %w", err)
	}
	return true, nil
}

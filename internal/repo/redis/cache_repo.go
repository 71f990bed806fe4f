package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// CacheRepo is a small JSON cache. The leaderboard aggregation joins the
// auth directory on every hit, so its result is cached for a short TTL.
type CacheRepo struct {
	client *goredis.Client
}

func NewCacheRepo(client *goredis.Client) *CacheRepo {
	return &CacheRepo{client: client}
}

func (r *CacheRepo) GetJSON(ctx context.Context, key string, target any) (bool, error) {
	if r.client == nil || key == "" {
		return false, nil
	}

	data, err := r.client.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get cache key: %w", err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("unmarshal cached value: %w", err)
	}

	return true, nil
}

func (r *CacheRepo) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if r.client == nil || key == "" || ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set cache key: %w", err)
	}

	return nil
}

func (r *CacheRepo) Invalidate(ctx context.Context, key string) error {
	if r.client == nil || key == "" {
		return nil
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete cache key: %w", err)
	}
	return nil
}

package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts hits per key inside a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type redisLimiter struct {
	rdb      *redis.Client
	requests int
	window   time.Duration
}

func NewLimiter(rdb *redis.Client, requests int, window time.Duration) Limiter {
	if rdb == nil || requests <= 0 || window <= 0 {
		return NopLimiter{}
	}
	return &redisLimiter{rdb: rdb, requests: requests, window: window}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := "ratelimit:" + hashKey(key)

	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			return false, err
		}
	}
	return n <= int64(l.requests), nil
}

type NopLimiter struct{}

func (NopLimiter) Allow(context.Context, string) (bool, error) { return true, nil }

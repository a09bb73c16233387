package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
)

type RoleCache interface {
	Get(ctx context.Context, email string) (role domain.Role, ok bool, err error)
	Set(ctx context.Context, email string, role domain.Role) error
	Delete(ctx context.Context, email string) error
}

type redisRoleCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRoleCache returns a Redis role cache. A nil client or a non-positive
// TTL disables caching.
func NewRoleCache(rdb *redis.Client, ttl time.Duration) RoleCache {
	if rdb == nil || ttl <= 0 {
		return NopRoleCache{}
	}
	return &redisRoleCache{rdb: rdb, ttl: ttl}
}

func roleKey(email string) string {
	return "role:" + strings.ToLower(strings.TrimSpace(email))
}

func (c *redisRoleCache) Get(ctx context.Context, email string) (domain.Role, bool, error) {
	v, err := c.rdb.Get(ctx, roleKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return domain.ParseRole(v), true, nil
}

func (c *redisRoleCache) Set(ctx context.Context, email string, role domain.Role) error {
	return c.rdb.Set(ctx, roleKey(email), string(role), c.ttl).Err()
}

func (c *redisRoleCache) Delete(ctx context.Context, email string) error {
	return c.rdb.Del(ctx, roleKey(email)).Err()
}

type NopRoleCache struct{}

func (NopRoleCache) Get(context.Context, string) (domain.Role, bool, error) { return "", false, nil }
func (NopRoleCache) Set(context.Context, string, domain.Role) error         { return nil }
func (NopRoleCache) Delete(context.Context, string) error                   { return nil }

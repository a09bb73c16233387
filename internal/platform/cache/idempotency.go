package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyTTL = 24 * time.Hour
	// ClaimTTL bounds how long a crashed request can hold a key.
	ClaimTTL = 30 * time.Second
)

// StoredResponse is the first successful response recorded for a key.
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*StoredResponse, bool, error)
	// Save records resp unless a response is already stored for key.
	Save(ctx context.Context, key string, resp StoredResponse) error
	// Claim marks key as in flight. It reports false while another request
	// holds the claim.
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type redisIdempotencyStore struct {
	rdb      *redis.Client
	ttl      time.Duration
	claimTTL time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) IdempotencyStore {
	if rdb == nil {
		return NopIdempotencyStore{}
	}
	if ttl <= 0 {
		ttl = IdempotencyTTL
	}
	return &redisIdempotencyStore{rdb: rdb, ttl: ttl, claimTTL: ClaimTTL}
}

func idemKey(key string) string {
	return "idem:" + hashKey(key)
}

func claimKey(key string) string {
	return "idem:claim:" + hashKey(key)
}

func (s *redisIdempotencyStore) Get(ctx context.Context, key string) (*StoredResponse, bool, error) {
	raw, err := s.rdb.Get(ctx, idemKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var resp StoredResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

func (s *redisIdempotencyStore) Save(ctx context.Context, key string, resp StoredResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.rdb.SetNX(ctx, idemKey(key), raw, s.ttl).Err()
}

func (s *redisIdempotencyStore) Claim(ctx context.Context, key string) (bool, error) {
	return s.rdb.SetNX(ctx, claimKey(key), "1", s.claimTTL).Result()
}

func (s *redisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, claimKey(key)).Err()
}

type NopIdempotencyStore struct{}

func (NopIdempotencyStore) Get(context.Context, string) (*StoredResponse, bool, error) {
	return nil, false, nil
}
func (NopIdempotencyStore) Save(context.Context, string, StoredResponse) error { return nil }
func (NopIdempotencyStore) Claim(context.Context, string) (bool, error) { return true, nil }
func (NopIdempotencyStore) Release(context.Context, string) error { return nil }

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "search:"

// Redis persists search records in Redis with a TTL, so dashboard links
// survive process restarts.
type Redis struct {
	c   *redis.Client
	ttl time.Duration
}

// NewRedis creates a Redis-backed store over an existing client.
func NewRedis(c *redis.Client, ttl time.Duration) *Redis {
	return &Redis{c: c, ttl: ttl}
}

func (r *Redis) Save(ctx context.Context, searchID string, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal search record: %w", err)
	}
	return r.c.Set(ctx, redisKeyPrefix+searchID, b, r.ttl).Err()
}

func (r *Redis) Lookup(ctx context.Context, searchID string) (Record, error) {
	b, err := r.c.Get(ctx, redisKeyPrefix+searchID).Bytes()
	if err == redis.Nil {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshal search record: %w", err)
	}
	return rec, nil
}

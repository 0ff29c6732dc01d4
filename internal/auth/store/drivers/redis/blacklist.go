// Package redis backs the revocation Blacklist with Redis. Entry expiry
// rides on Redis key TTLs, so revocations clean themselves up and are
// shared across service instances.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "auth:revoked:"

type Blacklist struct {
	client *redis.Client
}

func NewBlacklist(client *redis.Client) *Blacklist {
	return &Blacklist{client: client}
}

// Add lists a jti until its TTL elapses. Redis rejects non-positive
// expirations, so an already-expired token gets a minimal one-second
// listing instead.
func (b *Blacklist) Add(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Second
	}

	if err := b.client.Set(ctx, keyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis: add revocation for %s: %w", jti, err)
	}
	return nil
}

func (b *Blacklist) Has(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("redis: check revocation for %s: %w", jti, err)
	}
	return n > 0, nil
}

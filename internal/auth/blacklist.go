package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// revokedKeyPrefix namespaces revocation entries in Redis.
const revokedKeyPrefix = "revoked_token:"

// Blacklist is the durable set of revoked refresh-token identifiers.
// Entries carry a TTL equal to the remaining lifetime of the underlying
// token, so the set prunes itself once a token would have expired anyway.
type Blacklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type RedisBlacklist struct {
	Client *redis.Client
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{Client: client}
}

func (b *RedisBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.Client.Set(ctx, revokedKeyPrefix+jti, "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("failed to store revoked token in redis: %w", err)
	}
	return nil
}

func (b *RedisBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.Client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revoked token in redis: %w", err)
	}
	return n > 0, nil
}

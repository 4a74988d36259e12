package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const blocklistPrefix = "session:revoked:"

// TokenBlocklist records signed-out session tokens until they would have expired anyway.
type TokenBlocklist struct {
	rdb redis.Cmdable
}

// NewTokenBlocklist creates a blocklist stored in rdb.
func NewTokenBlocklist(rdb redis.Cmdable) *TokenBlocklist {
	return &TokenBlocklist{rdb: rdb}
}

// Revoke blocks the token id for ttl. A non-positive ttl is a no-op since the token has expired.
func (b *TokenBlocklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.rdb.Set(ctx, blocklistPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke session %s: %w", tokenID, err)
	}
	return nil
}

// IsRevoked reports whether the token id has been signed out.
func (b *TokenBlocklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := b.rdb.Exists(ctx, blocklistPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session %s: %w", tokenID, err)
	}
	return n > 0, nil
}

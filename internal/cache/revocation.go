package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "revoked_token:"

// RevokeToken 將 JWT ID 加入黑名單，直到原 token 過期
func RevokeToken(ctx context.Context, c Cache, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.Set(ctx, revokedPrefix+jti, "1", ttl).Err()
}

// IsTokenRevoked 查詢 JWT ID 是否已登出
func IsTokenRevoked(ctx context.Context, c Cache, jti string) (bool, error) {
	err := c.Get(ctx, revokedPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

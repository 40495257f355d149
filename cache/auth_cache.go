package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"audioarchive/db"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound means the login token is unknown, already used or
// expired.
var ErrTokenNotFound = errors.New("login token not found or expired")

// loginTokenKey builds the Redis key for a login token. Tokens are
// stored hashed so a Redis dump never contains usable links.
func loginTokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "login:token:" + hex.EncodeToString(sum[:])
}

// denylistKey builds the Redis key for a revoked session token id.
func denylistKey(jti string) string {
	return "session:denylist:" + jti
}

// StoreLoginToken records a one-time login token for userID with the
// given lifetime.
func StoreLoginToken(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	if db.RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	if err := db.RedisClient.Set(ctx, loginTokenKey(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store login token: %w", err)
	}
	return nil
}

// ConsumeLoginToken resolves a login token to its user and deletes it,
// so each link works exactly once.
func ConsumeLoginToken(ctx context.Context, token string) (int64, error) {
	if db.RedisClient == nil {
		return 0, fmt.Errorf("Redis client not initialized")
	}
	val, err := db.RedisClient.GetDel(ctx, loginTokenKey(token)).Result()
	if err == redis.Nil {
		return 0, ErrTokenNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to consume login token: %w", err)
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt login token value %q: %w", val, err)
	}
	return userID, nil
}

// DenylistSession revokes a session token id until its natural expiry.
func DenylistSession(ctx context.Context, jti string, until time.Duration) error {
	if db.RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	if until <= 0 {
		return nil // already expired, nothing to revoke
	}
	if err := db.RedisClient.Set(ctx, denylistKey(jti), 1, until).Err(); err != nil {
		return fmt.Errorf("failed to denylist session: %w", err)
	}
	return nil
}

// IsSessionDenylisted reports whether a session token id was revoked.
func IsSessionDenylisted(ctx context.Context, jti string) (bool, error) {
	if db.RedisClient == nil {
		return false, fmt.Errorf("Redis client not initialized")
	}
	n, err := db.RedisClient.Exists(ctx, denylistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session denylist: %w", err)
	}
	return n > 0, nil
}

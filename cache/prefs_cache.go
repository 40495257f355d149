package cache

import (
	"context"
	"fmt"
	"strconv"

	"audioarchive/db"

	"github.com/redis/go-redis/v9"
)

// pageSizeKey builds the Redis key holding a user's preferred list
// page size.
func pageSizeKey(userID int64) string {
	return fmt.Sprintf("prefs:pagesize:%d", userID)
}

// GetPageSize returns the user's stored page size preference, or 0
// when none is stored. The value is a string-encoded integer.
func GetPageSize(ctx context.Context, userID int64) (int, error) {
	if db.RedisClient == nil {
		return 0, fmt.Errorf("Redis client not initialized")
	}
	val, err := db.RedisClient.Get(ctx, pageSizeKey(userID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get page size preference: %w", err)
	}
	size, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("corrupt page size preference %q: %w", val, err)
	}
	return size, nil
}

// SetPageSize stores the user's page size preference. No expiry; the
// preference persists across sessions.
func SetPageSize(ctx context.Context, userID int64, size int) error {
	if db.RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	if err := db.RedisClient.Set(ctx, pageSizeKey(userID), strconv.Itoa(size), 0).Err(); err != nil {
		return fmt.Errorf("failed to store page size preference: %w", err)
	}
	return nil
}

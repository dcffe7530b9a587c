package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/equiptrack/auth-service/pkg/database"
)

// RateLimiter is a Redis-backed sliding window log. It throttles the
// endpoints that send email or check credentials by request volume; the
// attempt-ledger limiter in the login flow handles per-account failures.
type RateLimiter struct {
	redis *database.Redis
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *database.Redis) *RateLimiter {
	return &RateLimiter{redis: redis}
}

// Allow records the request against the key and reports whether it fits
// the window. When the limit is hit, retryAfter says how long until the
// oldest entry slides out; nothing is recorded for the rejected request.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error) {
	now := time.Now()
	windowStart := now.Add(-window)

	redisKey := fmt.Sprintf("throttle:%s", key)

	if err := r.redis.Client.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.Unix())).Err(); err != nil {
		return false, 0, fmt.Errorf("failed to trim throttle window: %w", err)
	}

	count, err := r.redis.Client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to count throttle window: %w", err)
	}

	if count >= int64(limit) {
		retryAfter = window
		oldest, err := r.redis.Client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
		if err == nil && len(oldest) > 0 {
			oldestTime := time.Unix(int64(oldest[0].Score), 0)
			retryAfter = window - time.Since(oldestTime)
			if retryAfter < 0 {
				retryAfter = 0
			}
		}
		return false, retryAfter, nil
	}

	member := fmt.Sprintf("%d-%d", now.UnixNano(), now.Unix())
	if err := r.redis.Client.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.Unix()),
		Member: member,
	}).Err(); err != nil {
		return false, 0, fmt.Errorf("failed to record request: %w", err)
	}

	// Window plus a buffer so an idle key cleans itself up
	_ = r.redis.Client.Expire(ctx, redisKey, window+time.Minute).Err()

	return true, 0, nil
}

// Remaining returns how many requests the key has left in the window
func (r *RateLimiter) Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	windowStart := time.Now().Add(-window)

	redisKey := fmt.Sprintf("throttle:%s", key)

	if err := r.redis.Client.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.Unix())).Err(); err != nil {
		return 0, fmt.Errorf("failed to trim throttle window: %w", err)
	}

	count, err := r.redis.Client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count throttle window: %w", err)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return remaining, nil
}

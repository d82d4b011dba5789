package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const limiterKeyPrefix = "ratelimit:"

// RedisLimiter is a fixed-window counter shared across instances. INCR plus
// a first-hit EXPIRE keeps the check to one round trip.
type RedisLimiter struct {
	client *redis.Client
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	k := limiterKeyPrefix + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	ttl := pipe.TTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit check: %w", err)
	}

	count := int(incr.Val())
	if count > limit {
		retry := ttl.Val()
		if retry < 0 {
			retry = window
		}
		return Result{Allowed: false, Remaining: 0, RetryAfter: retry}, nil
	}
	return Result{Allowed: true, Remaining: limit - count}, nil
}

package otp

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const challengeKeyPrefix = "otp:phone:"

// RedisStore keeps challenges in Redis hashes with the TTL doing the expiry.
// The shared store lets any instance verify a code issued by another.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(phone string) string {
	return challengeKeyPrefix + phone
}

func (s *RedisStore) Save(ctx context.Context, phone string, challenge Challenge) error {
	k := key(phone)
	ttl := time.Until(challenge.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("save otp challenge: already expired")
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, k,
		"code", challenge.Code,
		"expires_at", challenge.ExpiresAt.UnixMilli(),
		"attempts", challenge.Attempts,
		"max_attempts", challenge.MaxAttempts,
	)
	pipe.Expire(ctx, k, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save otp challenge: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, phone string) (*Challenge, error) {
	values, err := s.client.HGetAll(ctx, key(phone)).Result()
	if err != nil {
		return nil, fmt.Errorf("find otp challenge: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}

	expiresMs, err := strconv.ParseInt(values["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("find otp challenge: bad expiry: %w", err)
	}
	attempts, _ := strconv.Atoi(values["attempts"])
	maxAttempts, _ := strconv.Atoi(values["max_attempts"])

	return &Challenge{
		Code:        values["code"],
		ExpiresAt:   time.UnixMilli(expiresMs),
		Attempts:    attempts,
		MaxAttempts: maxAttempts,
	}, nil
}

func (s *RedisStore) RecordAttempt(ctx context.Context, phone string) error {
	if err := s.client.HIncrBy(ctx, key(phone), "attempts", 1).Err(); err != nil {
		return fmt.Errorf("record otp attempt: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, phone string) error {
	if err := s.client.Del(ctx, key(phone)).Err(); err != nil {
		return fmt.Errorf("delete otp challenge: %w", err)
	}
	return nil
}

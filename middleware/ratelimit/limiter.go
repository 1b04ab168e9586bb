package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error)
}

// RateLimitResult is the outcome of one Allow call.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Limit     int
}

// slidingWindow keeps one sorted-set member per admitted request, scored by
// its arrival time in milliseconds.
// KEYS[1] bucket; ARGV: now_ms, window_ms, limit, member.
// Returns {allowed, remaining, reset_at_ms}.
var slidingWindow = redis.NewScript(`
	local bucket = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])
	local max_requests = tonumber(ARGV[3])

	redis.call('ZREMRANGEBYSCORE', bucket, 0, now_ms - window_ms)
	local used = redis.call('ZCARD', bucket)

	if used >= max_requests then
		local first = redis.call('ZRANGE', bucket, 0, 0, 'WITHSCORES')
		local reset_ms = now_ms + window_ms
		if #first == 2 then
			reset_ms = tonumber(first[2]) + window_ms
		end
		return {0, 0, reset_ms}
	end

	redis.call('ZADD', bucket, now_ms, ARGV[4])
	redis.call('PEXPIRE', bucket, window_ms)
	return {1, max_requests - used - 1, now_ms + window_ms}
`)

// RedisLimiter implements a sliding window shared by every instance that
// talks to the same Redis.
type RedisLimiter struct {
	client    *redis.Client
	keyPrefix string
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a RedisLimiter.
func NewRedisLimiter(client *redis.Client, keyPrefix string) *RedisLimiter {
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	reply, err := slidingWindow.Run(ctx, l.client, []string{l.keyPrefix + key},
		time.Now().UnixMilli(), window.Milliseconds(), limit, uuid.NewString()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("sliding window script: %w", err)
	}
	if len(reply) != 3 {
		return nil, fmt.Errorf("sliding window script returned %d values, want 3", len(reply))
	}

	return &RateLimitResult{
		Allowed:   reply[0] == 1,
		Remaining: int(reply[1]),
		ResetAt:   time.UnixMilli(reply[2]),
		Limit:     limit,
	}, nil
}

// Reset forgets every request recorded for key.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.keyPrefix+key).Err()
}

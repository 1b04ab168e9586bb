package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func testRedisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

func setupRedisLimiter(t *testing.T) *RedisLimiter {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr()})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available at %s: %v", testRedisAddr(), err)
	}
	t.Cleanup(func() { client.Close() })

	return NewRedisLimiter(client, "test:ratelimit:"+t.Name()+":")
}

func TestNewRedisLimiter(t *testing.T) {
	limiter := NewRedisLimiter(nil, "test:")

	if limiter == nil {
		t.Fatal("NewRedisLimiter returned nil")
	}
	if limiter.keyPrefix != "test:" {
		t.Errorf("expected keyPrefix 'test:', got %q", limiter.keyPrefix)
	}
}

func TestRedisLimiter_Allow(t *testing.T) {
	limiter := setupRedisLimiter(t)
	ctx := context.Background()
	if err := limiter.Reset(ctx, "client"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		result, err := limiter.Allow(ctx, "client", 5, time.Minute)
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !result.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if result.Remaining != 4-i {
			t.Errorf("request %d: Remaining = %d, want %d", i+1, result.Remaining, 4-i)
		}
	}

	result, err := limiter.Allow(ctx, "client", 5, time.Minute)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if result.Allowed {
		t.Error("sixth request should be rejected")
	}
	if result.ResetAt.Before(time.Now()) {
		t.Errorf("ResetAt = %v, want in the future", result.ResetAt)
	}

	if err := limiter.Reset(ctx, "client"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	result, _ = limiter.Allow(ctx, "client", 5, time.Minute)
	if !result.Allowed {
		t.Error("request after Reset should be allowed")
	}
	_ = limiter.Reset(ctx, "client")
}

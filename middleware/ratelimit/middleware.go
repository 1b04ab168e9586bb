// Package ratelimit throttles HTTP clients with a sliding window in Redis,
// or an in-process token bucket when Redis is not configured.
package ratelimit

import (
	"strconv"
	"time"

	"github.com/example/tidytasks/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Config holds rate limiter configuration.
type Config struct {
	// Limit is the number of requests a client may make per Window.
	Limit  int
	Window time.Duration

	// KeyFunc identifies the client. Defaults to the remote IP.
	KeyFunc func(c *fiber.Ctx) string
}

// New returns a Fiber handler enforcing cfg with limiter. Limiter errors
// let the request through.
func New(cfg Config, limiter Limiter, log *zap.Logger) fiber.Handler {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *fiber.Ctx) string {
			return c.IP()
		}
	}

	return func(c *fiber.Ctx) error {
		if cfg.Limit <= 0 || cfg.Window <= 0 {
			return c.Next()
		}

		key := cfg.KeyFunc(c)
		result, err := limiter.Allow(c.UserContext(), key, cfg.Limit, cfg.Window)
		if err != nil {
			log.Warn("rate limit check failed", zap.String("client", key), zap.Error(err))
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			metrics.RateLimited.Inc()
			log.Warn("rate limit exceeded",
				zap.String("client", key),
				zap.Int("limit", result.Limit),
				zap.Time("reset_at", result.ResetAt),
			)

			retryAfter := int(time.Until(result.ResetAt).Seconds()) + 1
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "Rate limit exceeded, try again later",
			})
		}

		return c.Next()
	}
}

package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	clientIdleTimeout = 3 * time.Minute
	sweepInterval     = time.Minute
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter is an in-process token bucket per key, used when no Redis is
// configured. Idle keys are dropped during Allow.
type LocalLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
	now       func() time.Time
}

var _ Limiter = (*LocalLimiter)(nil)

// NewLocalLimiter creates a LocalLimiter.
func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{
		clients:   make(map[string]*client),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Allow refills limit tokens evenly over window, with a burst of limit.
func (l *LocalLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	now := l.now()
	every := rate.Every(window / time.Duration(limit))

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	c, ok := l.clients[key]
	if !ok || c.limiter.Burst() != limit || c.limiter.Limit() != every {
		c = &client{limiter: rate.NewLimiter(every, limit)}
		l.clients[key] = c
	}
	c.lastSeen = now

	allowed := c.limiter.AllowN(now, 1)
	tokens := c.limiter.TokensAt(now)

	resetAt := now
	if tokens < 1 {
		missing := 1 - tokens
		resetAt = now.Add(time.Duration(missing / float64(every) * float64(time.Second)))
	}

	return &RateLimitResult{
		Allowed:   allowed,
		Remaining: int(math.Max(0, math.Floor(tokens))),
		ResetAt:   resetAt,
		Limit:     limit,
	}, nil
}

func (l *LocalLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepInterval {
		return
	}
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) >= clientIdleTimeout {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

package middleware

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"kisah-comments/internal/domain"
)

const maxTrackedWriters = 10000

// WriteLimiter hands out one token bucket per user. Buckets for users that
// have gone quiet are evicted once maxTrackedWriters is reached.
type WriteLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters *lru.Cache[uuid.UUID, *rate.Limiter]
}

func NewWriteLimiter(perMinute, burst int) *WriteLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	if burst <= 0 {
		burst = 1
	}
	limiters, _ := lru.New[uuid.UUID, *rate.Limiter](maxTrackedWriters)
	return &WriteLimiter{
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		limiters: limiters,
	}
}

func (l *WriteLimiter) Allow(userID uuid.UUID) bool {
	l.mu.Lock()
	limiter, ok := l.limiters.Get(userID)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters.Add(userID, limiter)
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// RateLimitWrites must run after AuthRequired. Anonymous requests pass
// through and are rejected by the service.
func RateLimitWrites(limiter *WriteLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetCurrentUserID(c)
		if userID == uuid.Nil {
			return c.Next()
		}
		if !limiter.Allow(userID) {
			return domain.ErrTooManyWrites
		}
		return c.Next()
	}
}

// Package ratelimiter throttles requests per client IP with a token bucket.
// The bucket lives in memory; its remaining tokens are mirrored into redis
// so a restarted instance does not hand every client a fresh burst.
package ratelimiter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fazamuttaqien/lendora/pkg/common"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const keyPrefix = "ratelimit:"

// redisTimeout bounds each state read or write.
const redisTimeout = 500 * time.Millisecond

type RateLimiter struct {
	client *redis.Client
	log    *zap.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	ttl      time.Duration
}

func NewRateLimiter(client *redis.Client, rps float64, burst int, ttl time.Duration, log *zap.Logger) (*RateLimiter, error) {
	if client == nil {
		return nil, errors.New("ratelimiter: redis client is nil")
	}
	if rps <= 0 || burst <= 0 {
		return nil, errors.New("ratelimiter: rps and burst must be positive")
	}

	if ttl <= 0 {
		ttl = 5 * time.Minute
		log.Warn("Invalid TTL provided to rate limiter, defaulting", zap.Duration("default_ttl", ttl))
	}

	return &RateLimiter{
		client:   client,
		log:      log,
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
		ttl:      ttl,
	}, nil
}

// limiter returns the bucket for key, restoring its level from redis the
// first time the key is seen.
func (rl *RateLimiter) limiter(ctx context.Context, key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if lim, ok := rl.limiters[key]; ok {
		return lim
	}

	lim := rate.NewLimiter(rl.limit, rl.burst)

	readCtx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	remaining, err := rl.client.Get(readCtx, keyPrefix+key).Int()
	switch {
	case err == nil && remaining >= 0 && remaining < rl.burst:
		lim.AllowN(time.Now(), rl.burst-remaining)
		rl.log.Debug("Restored limiter from redis",
			zap.String("key", key),
			zap.Int("remaining", remaining),
		)
	case err != nil && !errors.Is(err, redis.Nil):
		rl.log.Error("Error getting rate limit state from redis", zap.String("key", key), zap.Error(err))
	}

	rl.limiters[key] = lim

	time.AfterFunc(rl.ttl, func() {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		delete(rl.limiters, key)
	})

	return lim
}

// Allow takes one token for key and records what is left.
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	lim := rl.limiter(ctx, key)
	allowed := lim.Allow()

	writeCtx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	if err := rl.client.Set(writeCtx, keyPrefix+key, int(lim.Tokens()), rl.ttl).Err(); err != nil {
		rl.log.Error("Error setting rate limit state to redis", zap.String("key", key), zap.Error(err))
	}

	return allowed
}

func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP()
		if key == "" {
			rl.log.Warn("Rate limiter cannot determine client IP address")
			return common.ErrorResponse(c, fiber.StatusForbidden, "Access forbidden: cannot identify client")
		}

		if !rl.Allow(c.UserContext(), key) {
			rl.log.Warn("Rate limit exceeded", zap.String("ip", key))
			return common.ErrorResponse(c, fiber.StatusTooManyRequests, "Too many requests, please try again later")
		}

		return c.Next()
	}
}

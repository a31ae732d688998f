package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"snsdso/internal/config"
	"snsdso/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when Redis cannot be reached.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

// ErrLimiterUnavailable is returned when no Redis client is configured.
var ErrLimiterUnavailable = errors.New("rate limiter has no redis client")

// Rule allows Limit requests per caller in each fixed Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	// RetryAfter is the time left in the current window.
	RetryAfter time.Duration
}

// Limiter counts requests in Redis under rl:<resource>:<caller>.
// It is a no-op on local and test environments.
type Limiter struct {
	rdb     redis.Cmdable
	enabled bool
}

// NewLimiter returns a Limiter backed by rdb, which may be nil.
func NewLimiter(rdb *redis.Client, cfg *config.Config) *Limiter {
	l := &Limiter{enabled: !cfg.IsLocal()}
	if rdb != nil {
		l.rdb = rdb
	}
	return l
}

// Allow records one request by caller against resource.
func (l *Limiter) Allow(ctx context.Context, resource, caller string, rule Rule) (Decision, error) {
	if !l.enabled {
		return Decision{Allowed: true, Remaining: rule.Limit}, nil
	}
	if l.rdb == nil {
		return Decision{}, ErrLimiterUnavailable
	}

	key := fmt.Sprintf("rl:%s:%s", resource, caller)
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	retryAfter := ttl.Val()
	// A key without a TTL would never reset; this also repairs one left by a
	// client that died between INCR and EXPIRE.
	if retryAfter < 0 {
		if err := l.rdb.PExpire(ctx, key, rule.Window).Err(); err != nil {
			return Decision{}, err
		}
		retryAfter = rule.Window
	}

	count := int(incr.Val())
	remaining := rule.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:    count <= rule.Limit,
		Remaining:  remaining,
		RetryAfter: retryAfter,
	}, nil
}

// Middleware enforces rule on resource, keyed by the session user when one is
// present and by client IP otherwise.
func (l *Limiter) Middleware(resource string, rule Rule, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok {
			caller = fmt.Sprintf("user:%d", uid)
		}

		d, err := l.Allow(c.UserContext(), resource, caller, rule)
		if err != nil {
			Logger.WarnContext(c.UserContext(), "rate limit check failed",
				"resource", resource, "policy", policy, "error", err)
			if policy == FailClosed {
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Status:  "error",
					Message: "Rate limit unavailable",
				})
			}
			return c.Next()
		}

		if l.enabled {
			c.Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
			c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		}
		if !d.Allowed {
			secs := int((d.RetryAfter + time.Second - 1) / time.Second)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Status:  "error",
				Message: "Too many requests, please try again later",
			})
		}
		return c.Next()
	}
}

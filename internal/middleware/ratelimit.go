// Package middleware provides request-scoped Fiber middleware: logging, rate limiting, metrics and tracing.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// Quota is a fixed-window allowance of Limit requests per Window, counted in
// Redis so every replica shares it.
type Quota struct {
	Name   string
	Limit  int
	Window time.Duration
	Policy FailPolicy
}

// Decision is the outcome of counting one request against a Quota.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

var errNoStore = errors.New("rate limit store not configured")

// rateLimitBypassed reports whether APP_ENV disables quotas (test, development or unset).
func rateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return true
	}
	return false
}

// Consume counts one request by subject. The window starts with the first
// request; a counter left without a TTL gets one on the next call.
func (q Quota) Consume(ctx context.Context, rdb *redis.Client, subject string) (Decision, error) {
	if rateLimitBypassed() {
		return Decision{Allowed: true, Remaining: q.Limit, ResetIn: q.Window}, nil
	}
	if rdb == nil {
		return Decision{}, errNoStore
	}

	key := fmt.Sprintf("rl:%s:%s", q.Name, subject)

	var incr *redis.IntCmd
	var pttl *redis.DurationCmd
	if _, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pttl = pipe.PTTL(ctx, key)
		return nil
	}); err != nil {
		return Decision{}, err
	}

	resetIn := pttl.Val()
	if resetIn < 0 {
		if err := rdb.PExpire(ctx, key, q.Window).Err(); err != nil {
			return Decision{}, err
		}
		resetIn = q.Window
	}

	count := int(incr.Val())
	return Decision{
		Allowed:   count <= q.Limit,
		Remaining: max(q.Limit-count, 0),
		ResetIn:   resetIn,
	}, nil
}

// Requester identifies the caller for quota accounting: the authenticated
// user when known, otherwise c.IP(). c.IP() only reads X-Forwarded-For when
// the peer is one of the app's trusted proxies, so clients cannot pick their
// own bucket.
func Requester(c *fiber.Ctx) string {
	if uid := c.Locals("userID"); uid != nil {
		return fmt.Sprintf("user:%v", uid)
	}
	return "ip:" + c.IP()
}

// RateLimit returns a fail-open middleware enforcing limit requests per window.
// The quota is named after the route path unless a name is given.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit store failure policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	q := Quota{Limit: limit, Window: window, Policy: policy}
	if len(name) > 0 {
		q.Name = name[0]
	}
	return Enforce(rdb, q)
}

// Enforce returns a middleware that charges every request to q and answers 429
// with Retry-After once the window's allowance is spent.
func Enforce(rdb *redis.Client, q Quota) fiber.Handler {
	return func(c *fiber.Ctx) error {
		quota := q
		if quota.Name == "" {
			quota.Name = c.Path()
		}

		d, err := quota.Consume(c.UserContext(), rdb, Requester(c))
		if err != nil {
			if quota.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					slog.String("quota", quota.Name),
					slog.String("error", err.Error()),
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "rate limit unavailable",
				})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(quota.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int((d.ResetIn+time.Second-1)/time.Second)))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"snsdso/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var production = &config.Config{Env: "production"}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestLimiter_DisabledLocally(t *testing.T) {
	for _, env := range []string{"", "test", "development"} {
		t.Run(env, func(t *testing.T) {
			l := NewLimiter(nil, &config.Config{Env: env})
			d, err := l.Allow(context.Background(), "login", "ip:1", Rule{Limit: 1, Window: time.Minute})
			require.NoError(t, err)
			assert.True(t, d.Allowed)
		})
	}
}

func TestLimiter_NilRedis(t *testing.T) {
	l := NewLimiter(nil, production)
	d, err := l.Allow(context.Background(), "login", "ip:1", Rule{Limit: 1, Window: time.Minute})
	assert.ErrorIs(t, err, ErrLimiterUnavailable)
	assert.False(t, d.Allowed)
}

func TestLimiter_Window(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	l := NewLimiter(rdb, &config.Config{Env: "staging"})
	ctx := context.Background()
	rule := Rule{Limit: 2, Window: time.Minute}

	d, err := l.Allow(ctx, "login", "ip:1", rule)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, err = l.Allow(ctx, "login", "ip:1", rule)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, err = l.Allow(ctx, "login", "ip:1", rule)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, time.Minute, mr.TTL("rl:login:ip:1"))
	assert.Greater(t, int64(d.RetryAfter), int64(0))

	// A different caller has its own budget.
	d, err = l.Allow(ctx, "login", "ip:2", rule)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	mr.FastForward(time.Minute + time.Second)
	d, err = l.Allow(ctx, "login", "ip:1", rule)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestLimiter_RepairsKeyWithoutTTL(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	require.NoError(t, mr.Set("rl:login:ip:1", "5"))

	l := NewLimiter(rdb, production)
	d, err := l.Allow(context.Background(), "login", "ip:1", Rule{Limit: 10, Window: time.Minute})
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 4, d.Remaining)
	assert.Equal(t, time.Minute, mr.TTL("rl:login:ip:1"))
}

func TestLimiterMiddleware(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	l := NewLimiter(rdb, production)

	app := fiber.New()
	app.Post("/login", l.Middleware("login", Rule{Limit: 1, Window: time.Minute}, FailOpen), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))

	// Fail open when Redis goes away.
	mr.Close()
	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/login", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLimiterMiddleware_KeysBySessionUser(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	l := NewLimiter(rdb, production)

	app := fiber.New()
	app.Post("/posts", func(c *fiber.Ctx) error {
		c.Locals("userID", uint(7))
		return c.Next()
	}, l.Middleware("posts", Rule{Limit: 5, Window: time.Minute}, FailOpen), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/posts", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, mr.Exists("rl:posts:user:7"))
}

func TestLimiterMiddleware_FailClosed(t *testing.T) {
	l := NewLimiter(nil, production)

	app := fiber.New()
	app.Post("/register", l.Middleware("register", Rule{Limit: 1, Window: time.Minute}, FailClosed), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/register", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

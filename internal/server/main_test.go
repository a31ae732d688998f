package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"snsdso/internal/config"
	"snsdso/internal/database"
	"snsdso/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:               "test",
		BcryptCost:        4,
		SessionLifetime:   time.Hour,
		SessionCookieName: "sns_session",
		AllowedOrigins:    "*",
	}
}

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, testConfig())
}

func newTestEnvWithConfig(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := NewServerWithDeps(cfg, database.NewManagerWithDB(db), rdb)
	return &testEnv{app: s.App(), db: db, mr: mr}
}

type response struct {
	status  int
	body    map[string]interface{}
	raw     []byte
	cookies []*http.Cookie
}

// do sends a request with an optional JSON body and session cookie.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := response{status: resp.StatusCode, raw: raw, cookies: resp.Cookies()}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out.body), string(raw))
	}
	return out
}

func (r response) cookie(name string) *http.Cookie {
	for _, c := range r.cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// register creates an account and returns its id.
func (e *testEnv) register(t *testing.T, username string) uint {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.raw))
	return uint(resp.body["user_id"].(float64))
}

// login returns the session cookie for username.
func (e *testEnv) login(t *testing.T, username string) *http.Cookie {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": "password123",
	}, nil)
	require.Equal(t, http.StatusOK, resp.status, string(resp.raw))
	c := resp.cookie("sns_session")
	require.NotNil(t, c)
	return &http.Cookie{Name: c.Name, Value: c.Value}
}

func (e *testEnv) createPost(t *testing.T, cookie *http.Cookie, content string) uint {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/posts", map[string]string{"content": content}, cookie)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.raw))
	return uint(resp.body["post_id"].(float64))
}

func failingConnector(*config.Config) (*gorm.DB, error) {
	return nil, errors.New("connection refused")
}

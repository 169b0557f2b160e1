package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/agrolink/farm-marketplace/internal/config"
)

func limiterCtx(t *testing.T, method, path string) echo.Context {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(method, path, nil)
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath(path)
    return c
}

func TestRateKeyShape(t *testing.T) {
    cfg := config.RateLimitConfig{Prefix: "rl"}
    c := limiterCtx(t, http.MethodGet, "/crops")

    // httptest requests originate from 192.0.2.1
    assert.Equal(t, "rl:ip:192.0.2.1:route:GET /crops", rateKey(cfg, c))
}

// The limiter runs before auth, so session identity never reaches the
// key: two requests from one address share a bucket regardless of who
// is logged in.
func TestRateKeyIgnoresSession(t *testing.T) {
    cfg := config.RateLimitConfig{Prefix: "rl"}

    anon := limiterCtx(t, http.MethodPost, "/crops/add")
    authed := limiterCtx(t, http.MethodPost, "/crops/add")
    authed.Set("user_id", uint64(7))
    authed.Set("role", "farmer")

    assert.Equal(t, rateKey(cfg, anon), rateKey(cfg, authed))
    assert.NotContains(t, rateKey(cfg, authed), "user")
    assert.NotContains(t, rateKey(cfg, authed), "anon")
}

func TestRateKeySeparatesRoutes(t *testing.T) {
    cfg := config.RateLimitConfig{Prefix: "rl"}
    get := limiterCtx(t, http.MethodGet, "/crops")
    post := limiterCtx(t, http.MethodPost, "/crops/add")
    assert.NotEqual(t, rateKey(cfg, get), rateKey(cfg, post))
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
    mw := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)
    c := limiterCtx(t, http.MethodGet, "/crops")
    called := false
    err := mw(func(c echo.Context) error {
        called = true
        return c.NoContent(http.StatusOK)
    })(c)
    require.NoError(t, err)
    assert.True(t, called)
}

func TestAsInt64(t *testing.T) {
    assert.Equal(t, int64(3), asInt64(int64(3)))
    assert.Equal(t, int64(3), asInt64(3))
    assert.Equal(t, int64(3), asInt64(3.0))
    assert.Equal(t, int64(3), asInt64("3"))
    assert.Equal(t, int64(0), asInt64("nope"))
}

package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestLoadCacheConfigDefaults(t *testing.T) {
    cfg := LoadCacheConfig()
    assert.True(t, cfg.Enabled)
    assert.True(t, cfg.Methods["GET"])
    assert.False(t, cfg.Methods["POST"])
    assert.Equal(t, 30*time.Second, cfg.TTL)
    assert.Equal(t, "mkt", cfg.Prefix)
}

func TestLoadCacheConfigOverrides(t *testing.T) {
    t.Setenv("CACHE_ENABLED", "false")
    t.Setenv("CACHE_METHODS", "get, head")
    t.Setenv("CACHE_TTL", "2m")
    cfg := LoadCacheConfig()
    assert.False(t, cfg.Enabled)
    assert.True(t, cfg.Methods["GET"])
    assert.True(t, cfg.Methods["HEAD"])
    assert.Equal(t, 2*time.Minute, cfg.TTL)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
    t.Setenv("RATE_LIMIT_TTL", "1s")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1s")
    cfg := LoadRateLimitConfig()
    assert.Equal(t, 1, cfg.Capacity)
    assert.Equal(t, 1, cfg.RefillTokens)
    // TTL is raised to cover at least five refill intervals
    assert.Equal(t, 5*time.Second, cfg.TTL)
}

func TestIntOr(t *testing.T) {
    t.Setenv("SOME_INT", "")
    assert.Equal(t, 24, intOr("SOME_INT", 24))
    t.Setenv("SOME_INT", "7")
    assert.Equal(t, 7, intOr("SOME_INT", 24))
}

package config

import (
    "os"
    "strconv"
    "time"
)

// RateLimitConfig controls the token-bucket limiter applied to the
// checkout endpoints.  Checkout is the only surface worth limiting here:
// every accepted request creates an order row and a signed gateway
// payload.
type RateLimitConfig struct {
    Enabled        bool          // master switch
    Capacity       int           // bucket size per key
    RefillTokens   int           // tokens added per interval
    RefillInterval time.Duration // refill cadence
    TTL            time.Duration // idle bucket expiry in Redis
    Prefix         string        // Redis key namespace
}

// LoadRateLimitConfig reads the limiter settings from the environment,
// falling back to defaults that allow short seat-picking bursts without
// letting one buyer hammer checkout.
func LoadRateLimitConfig() RateLimitConfig {
    return RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 10),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 2*time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "ratelimit"),
    }
}

// CacheConfig defines settings for the seat-map response cache.  Seat
// availability is read far more often than it changes; a short TTL keeps
// the map fresh enough while absorbing browse traffic.
type CacheConfig struct {
    Enabled bool          // master switch
    TTL     time.Duration // cache entry lifetime
    Prefix  string        // Redis key namespace
}

// LoadCacheConfig reads the cache settings from the environment.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled: envBool("CACHE_ENABLED", true),
        TTL:     envDur("CACHE_TTL", 5*time.Second),
        Prefix:  envStr("CACHE_PREFIX", "cache"),
    }
}

func envStr(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func envInt(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        if n, err := strconv.Atoi(v); err == nil {
            return n
        }
    }
    return def
}

func envBool(key string, def bool) bool {
    if v := os.Getenv(key); v != "" {
        if b, err := strconv.ParseBool(v); err == nil {
            return b
        }
    }
    return def
}

func envDur(key string, def time.Duration) time.Duration {
    if v := os.Getenv(key); v != "" {
        if d, err := time.ParseDuration(v); err == nil {
            return d
        }
    }
    return def
}

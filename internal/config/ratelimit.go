package config

import "time"

// RateLimitConfig drives the token bucket in front of POST /v1/reservations.
// The bucket lives in Redis when a client is available so every instance
// shares it; without Redis each instance keeps its own buckets.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int // bookings a key may burst
    RefillTokens   int // tokens added per RefillInterval
    RefillInterval time.Duration
    TTL            time.Duration // idle bucket lifetime in Redis
    KeyStrategy    string        // "ip", "ip_route" or "route"
    Prefix         string
    Debug          bool // log every blocked request
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  The defaults allow a
// guest ten quick attempts and then one booking every six seconds, which
// is far above what a person filling the form can do.
func LoadRateLimitConfig() RateLimitConfig {
    rl := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 10),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "rl:booking"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }
    return rl.normalized()
}

// normalized clamps values that would make the bucket useless.  A bucket
// must outlive at least a few refills or Redis forgets it before it fills.
func (rl RateLimitConfig) normalized() RateLimitConfig {
    rl.Capacity = max(rl.Capacity, 1)
    rl.RefillTokens = max(rl.RefillTokens, 1)
    if rl.RefillInterval <= 0 {
        rl.RefillInterval = time.Second
    }
    rl.TTL = max(rl.TTL, 5*rl.RefillInterval)
    return rl
}

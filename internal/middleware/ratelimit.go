package middleware

import (
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "sync"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"
    "golang.org/x/time/rate"

    "github.com/iliyamo/winery-visit-booking/internal/config"
)

// tokenBucketScript refills the bucket in whole intervals, takes one token
// when there is one and returns {allowed, tokens left, retry after ms}.
var tokenBucketScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])

    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
    end

    redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
    redis.call('EXPIRE', key, ttl_seconds)

    return { allowed, tokens, retry_after_ms }
`)

// verdict is the outcome of one bucket check.
type verdict struct {
    allowed   bool
    remaining int64
    retry     time.Duration
}

// localBuckets is the in-process limiter used when Redis is absent or
// failing.  Limits are then per instance rather than global.
type localBuckets struct {
    limiters sync.Map // key -> *rate.Limiter
    every    rate.Limit
    burst    int
}

func newLocalBuckets(cfg config.RateLimitConfig) *localBuckets {
    perToken := cfg.RefillInterval / time.Duration(cfg.RefillTokens)
    return &localBuckets{every: rate.Every(perToken), burst: cfg.Capacity}
}

func (l *localBuckets) take(key string) verdict {
    v, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.every, l.burst))
    lim := v.(*rate.Limiter)
    r := lim.Reserve()
    if delay := r.Delay(); delay > 0 {
        r.Cancel()
        return verdict{retry: delay}
    }
    return verdict{allowed: true, remaining: int64(lim.Tokens())}
}

// NewTokenBucket limits requests per key (see RateLimitConfig.KeyStrategy)
// with a token bucket kept in Redis so all instances share it.  When rdb
// is nil or a script call fails, an in-process limiter decides instead.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zerolog.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    if log == nil {
        nop := zerolog.Nop()
        log = &nop
    }
    local := newLocalBuckets(cfg)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)

            v, err := redisTake(c, rdb, cfg, key)
            if err != nil {
                if rdb != nil {
                    log.Warn().Err(err).Str("key", key).Msg("ratelimit: redis unavailable, using local bucket")
                }
                v = local.take(key)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(v.remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if !v.allowed {
                secs := int(math.Ceil(v.retry.Seconds()))
                h.Set("Retry-After", strconv.Itoa(secs))
                if cfg.Debug {
                    log.Debug().Str("key", key).Dur("retry", v.retry).Msg("ratelimit: blocked")
                }
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "too_many_requests",
                    "message":     "Demasiadas solicitudes, intenta nuevamente en unos segundos",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

func redisTake(c echo.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string) (verdict, error) {
    if rdb == nil {
        return verdict{}, redis.Nil
    }
    vals, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key},
        time.Now().UnixMilli(),
        cfg.Capacity,
        cfg.RefillTokens,
        cfg.RefillInterval.Milliseconds(),
        int64(cfg.TTL/time.Second),
    ).Slice()
    if err != nil {
        return verdict{}, err
    }
    if len(vals) != 3 {
        return verdict{}, fmt.Errorf("unexpected script result %#v", vals)
    }
    return verdict{
        allowed:   asInt64(vals[0]) == 1,
        remaining: asInt64(vals[1]),
        retry:     time.Duration(asInt64(vals[2])) * time.Millisecond,
    }, nil
}

func asInt64(v interface{}) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int:
        return int64(t)
    case float64:
        return int64(t)
    case string:
        n, _ := strconv.ParseInt(t, 10, 64)
        return n
    }
    return 0
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    uid := userKey(c)
    route := c.Request().Method + " " + c.Path()

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", uid)
    case "route":
        parts = append(parts, "route", route)
    case "ip_user":
        parts = append(parts, "ip", ip, "user", uid)
    case "ip_route":
        parts = append(parts, "ip", ip, "route", route)
    case "user_route":
        parts = append(parts, "user", uid, "route", route)
    default:
        parts = append(parts, "ip", ip, "user", uid, "route", route)
    }
    return strings.Join(parts, ":")
}

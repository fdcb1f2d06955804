package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"

    "github.com/iliyamo/winery-visit-booking/internal/config"
    "github.com/iliyamo/winery-visit-booking/internal/realtime"
)

// captureWriter copies the response body, up to limit bytes, while
// forwarding it to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
    if cw.limit <= 0 || cw.size+int64(len(b)) <= cw.limit {
        cw.buf.Write(b)
    }
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

// truncated reports whether the body outgrew the capture limit.
func (cw *captureWriter) truncated() bool { return cw.limit > 0 && cw.size > cw.limit }

// generationKey holds a counter PurgeCache bumps.  It sits outside the
// "<prefix>:*" pattern so a purge never deletes it.
func generationKey(prefix string) string { return prefix + "#gen" }

// cacheKey hashes the parts of the request selected by the key strategy
// under cfg.Prefix and the current generation.  A response computed
// before a purge is stored under the old generation, where no later
// request looks.
func cacheKey(cfg config.CacheConfig, c echo.Context, gen int64) string {
    r := c.Request()
    var parts []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = []string{"route", c.Path()}
    case "method_route":
        parts = []string{"method", r.Method, "route", c.Path()}
    case "method_route_query":
        parts = []string{"method", r.Method, "route", c.Path(), "q", r.URL.RawQuery}
    default: // route_query
        parts = []string{"route", c.Path(), "q", r.URL.RawQuery}
    }
    sum := sha1.Sum([]byte(strings.Join(parts, ":")))
    return fmt.Sprintf("%s:%d:%x", cfg.Prefix, gen, sum[:])
}

// encodePayload packs [4 bytes status][4 bytes header length][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8+len(hdrJSON)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if hlen < 0 || 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    header = make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, header, bs[8+hlen:], true
}

// NewRedisCache caches successful responses of the public availability
// reads in Redis.  Entries are dropped by PurgeCache whenever a slot or a
// reservation changes, so the TTL only bounds staleness when a purge is
// missed.  With caching disabled or no Redis client it is a no-op.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }
    maxBody := int64(cfg.MaxBodyBytes)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            ctx := c.Request().Context()
            gen, err := rdb.Get(ctx, generationKey(cfg.Prefix)).Int64()
            if err != nil && !errors.Is(err, redis.Nil) {
                return next(c)
            }
            key := cacheKey(cfg, c, gen)

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    for k, vals := range hdr {
                        if strings.EqualFold(k, "Content-Length") || strings.EqualFold(k, HeaderRequestID) {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    _, _ = c.Response().Write(body)
                    return nil
                }
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.truncated() {
                return nil
            }
            hdr := c.Response().Header().Clone()
            hdr.Del("X-Cache")
            if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
                _ = rdb.SetEx(context.WithoutCancel(ctx), key, payload, ttl).Err()
            }
            return nil
        }
    }
}

// PurgeCache moves the cache to a new generation, then deletes every
// cached response under prefix and returns how many keys went.
func PurgeCache(ctx context.Context, rdb *redis.Client, prefix string) (int, error) {
    if err := rdb.Incr(ctx, generationKey(prefix)).Err(); err != nil {
        return 0, err
    }
    var (
        cursor uint64
        n      int
    )
    for {
        keys, next, err := rdb.Scan(ctx, cursor, prefix+":*", 100).Result()
        if err != nil {
            return n, err
        }
        if len(keys) > 0 {
            if err := rdb.Del(ctx, keys...).Err(); err != nil {
                return n, err
            }
            n += len(keys)
        }
        if next == 0 {
            return n, nil
        }
        cursor = next
    }
}

// PurgeOnChange empties the response cache for every slot or reservation
// change seen on sub, until ctx ends.  Remote changes arrive through the
// hub too, so every instance keeps a shared Redis cache consistent.
func PurgeOnChange(ctx context.Context, rdb *redis.Client, prefix string, sub *realtime.Subscription, log *zerolog.Logger) {
    realtime.Listen(ctx, sub, func(ev realtime.Event) {
        if ev.Table != realtime.TableSlots && ev.Table != realtime.TableVisits {
            return
        }
        if _, err := PurgeCache(ctx, rdb, prefix); err != nil && log != nil {
            log.Warn().Err(err).Str("table", ev.Table).Msg("cache purge failed")
        }
    })
}

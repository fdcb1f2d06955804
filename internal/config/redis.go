package config

import (
    "context"
    "crypto/tls"
    "net"
    "os"
    "time"

    "github.com/redis/go-redis/v9"
)

// redisOptions reads REDIS_* variables.  REDIS_HOST and REDIS_PORT win
// over the REDIS_ADDR shorthand when both are set.
func redisOptions() *redis.Options {
    addr := envStr("REDIS_ADDR", "localhost:6379")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = net.JoinHostPort(host, port)
    }
    opts := &redis.Options{
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       envInt("REDIS_DB", 0),
    }
    if envBool("REDIS_TLS", false) {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    return opts
}

// NewRedisClient connects to Redis, or returns nil when REDIS_ENABLED is
// false or the server does not answer a ping within two seconds.  Redis
// backs the availability cache, the booking rate limiter and the
// provisioning lock; each of them works without it, so a nil client is
// not an error.
func NewRedisClient(ctx context.Context) *redis.Client {
    if !envBool("REDIS_ENABLED", true) {
        return nil
    }
    client := redis.NewClient(redisOptions())
    pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := client.Ping(pingCtx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}

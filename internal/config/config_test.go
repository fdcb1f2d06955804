package config

import (
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestLoadDemoModeWhenHostIsPlaceholder(t *testing.T) {
    t.Setenv("DB_DRIVER", "mysql")
    t.Setenv("DB_HOST", "your-db-host-placeholder")
    t.Setenv("JWT_SECRET", "")
    t.Setenv("APP_DEMO", "")

    cfg, err := Load()
    require.NoError(t, err)
    assert.True(t, cfg.DemoMode)
    assert.Equal(t, "demo-secret", cfg.JWTSecret)
}

func TestLoadReportsAllMissingVars(t *testing.T) {
    t.Setenv("DB_DRIVER", "mysql")
    t.Setenv("DB_HOST", "db.internal")
    t.Setenv("DB_USER", "")
    t.Setenv("DB_NAME", "")
    t.Setenv("JWT_SECRET", "")
    t.Setenv("APP_DEMO", "false")

    _, err := Load()
    require.Error(t, err)
    assert.Contains(t, err.Error(), "DB_USER")
    assert.Contains(t, err.Error(), "DB_NAME")
    assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadSQLite(t *testing.T) {
    t.Setenv("DB_DRIVER", "sqlite")
    t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "visits.db"))
    t.Setenv("JWT_SECRET", "s3cret")
    t.Setenv("APP_DEMO", "")
    t.Setenv("ACCESS_TOKEN_TTL_MIN", "not-a-number")

    cfg, err := Load()
    require.NoError(t, err)
    assert.False(t, cfg.DemoMode)
    assert.Equal(t, DriverSQLite, cfg.DBDriver)
    assert.Equal(t, 15, cfg.AccessTTLMin)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
    t.Setenv("DB_DRIVER", "oracle")
    t.Setenv("APP_DEMO", "")
    _, err := Load()
    assert.Error(t, err)
}

func TestRateLimitConfigClamps(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")

    rl := LoadRateLimitConfig()
    assert.Equal(t, 1, rl.Capacity)
    assert.Equal(t, 2*time.Second, rl.RefillInterval)
    assert.Equal(t, 10*time.Second, rl.TTL)
}

func TestCacheConfigMethods(t *testing.T) {
    t.Setenv("CACHE_METHODS", "get, head ,")
    cc := LoadCacheConfig()
    assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cc.Methods)
    assert.Equal(t, "cache:availability", cc.Prefix)
}

func TestLoadSchedule(t *testing.T) {
    dir := t.TempDir()

    t.Run("OverridesHotels", func(t *testing.T) {
        path := filepath.Join(dir, "schedule.yaml")
        content := `
hotels: ["Park Hyatt", "Diplomatic"]
`
        require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

        s, err := LoadSchedule(path)
        require.NoError(t, err)
        assert.Equal(t, []string{"Park Hyatt", "Diplomatic"}, s.Hotels)
        assert.Len(t, s.DefaultSlots, 2)
        assert.True(t, s.HotelAllowed("Diplomatic"))
        assert.True(t, s.HotelAllowed(HotelExternal))
        assert.False(t, s.HotelAllowed("Sheraton"))
    })

    t.Run("RejectsBadTime", func(t *testing.T) {
        path := filepath.Join(dir, "bad.yaml")
        content := `
default_slots:
  - time: "25:00"
    language: "English"
    seats: 10
`
        require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
        _, err := LoadSchedule(path)
        assert.Error(t, err)
    })

    t.Run("MissingFile", func(t *testing.T) {
        _, err := LoadSchedule(filepath.Join(dir, "nope.yaml"))
        assert.Error(t, err)
    })
}

func TestLoadBookingConfigFallsBack(t *testing.T) {
    t.Setenv("BOOKING_TIMEZONE", "Mars/Olympus")
    t.Setenv("BOOKING_HORIZON_DAYS", "-3")
    t.Setenv("SCHEDULE_FILE", "")

    bc := LoadBookingConfig()
    assert.Equal(t, time.UTC, bc.Location)
    assert.Equal(t, 60, bc.HorizonDays)
    assert.Equal(t, DefaultSchedule(), bc.Schedule)
}

func TestRedisOptions(t *testing.T) {
    t.Setenv("REDIS_ADDR", "cache:6380")
    t.Setenv("REDIS_HOST", "")
    t.Setenv("REDIS_PORT", "")
    t.Setenv("REDIS_DB", "3")
    t.Setenv("REDIS_TLS", "yes")
    opts := redisOptions()
    assert.Equal(t, "cache:6380", opts.Addr)
    assert.Equal(t, 3, opts.DB)
    require.NotNil(t, opts.TLSConfig)

    t.Setenv("REDIS_HOST", "redis.internal")
    t.Setenv("REDIS_PORT", "6379")
    t.Setenv("REDIS_TLS", "")
    opts = redisOptions()
    assert.Equal(t, "redis.internal:6379", opts.Addr)
    assert.Nil(t, opts.TLSConfig)
}

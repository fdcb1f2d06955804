package config // package config loads application configuration from environment variables

import (
    "fmt"     // fmt formats the aggregated missing-variable error
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings" // strings normalizes driver names and placeholder checks

    "github.com/joho/godotenv" // godotenv loads a local .env file when present
)

// Supported values for DB_DRIVER.
const (
    DriverMySQL  = "mysql"
    DriverSQLite = "sqlite"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
    Env            string   // application environment (e.g. "dev", "prod")
    Port           string   // HTTP port to listen on
    Version        string   // build or release label reported in logs
    DBDriver       string   // "mysql" (default) or "sqlite"
    DBUser         string   // database username
    DBPass         string   // database password (optional)
    DBHost         string   // database host address
    DBPort         string   // database port number
    DBName         string   // database name
    DBPath         string   // sqlite database file (sqlite driver only)
    JWTSecret      string   // secret used to sign JWTs
    AccessTTLMin   int      // access token time‑to‑live in minutes
    RefreshTTLDays int      // refresh token time‑to‑live in days
    BcryptCost     int      // bcrypt cost for password hashing
    AdminEmail     string   // bootstrap admin account created at startup when absent
    AdminPassword  string   // password for the bootstrap admin
    RabbitURL      string   // AMQP URL; empty disables publishing and fan-out
    DemoMode       bool     // true when no real store is configured; writes become no-ops
    LogDir         string   // directory of the reservation log written by the consumer
    AllowedOrigins []string // WebSocket origins; empty accepts any
    Booking        BookingConfig
    Logging        LoggingConfig
    Cache          CacheConfig
    RateLimit      RateLimitConfig
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first when it
// exists; real environment variables win over it.  Required variables are
// only enforced outside demo mode and every missing one is reported in a
// single error.
func Load() (Config, error) {
    _ = godotenv.Load() // optional; absence of .env is not an error

    cfg := Config{
        Env:            envStr("APP_ENV", "dev"),
        Port:           envStr("APP_PORT", "8080"),
        Version:        envStr("APP_VERSION", "dev"),
        DBDriver:       strings.ToLower(envStr("DB_DRIVER", DriverMySQL)),
        DBUser:         os.Getenv("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"), // empty allowed
        DBHost:         os.Getenv("DB_HOST"),
        DBPort:         envStr("DB_PORT", "3306"),
        DBName:         os.Getenv("DB_NAME"),
        DBPath:         os.Getenv("DB_PATH"),
        JWTSecret:      os.Getenv("JWT_SECRET"),
        AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 15),
        RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 7),
        BcryptCost:     envInt("BCRYPT_COST", 10),
        AdminEmail:     strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
        AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
        RabbitURL:      firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")),
        LogDir:         envStr("LOG_DIR", "logs"),
        AllowedOrigins: splitList(os.Getenv("WS_ALLOWED_ORIGINS")),
        Booking:        LoadBookingConfig(),
        Logging:        LoadLoggingConfig(),
        Cache:          LoadCacheConfig(),
        RateLimit:      LoadRateLimitConfig(),
    }
    cfg.DemoMode = envBool("APP_DEMO", false) || isDemoStore(cfg)

    if cfg.DemoMode {
        // Demo mode never touches a real store, so only the signing secret
        // needs a value and a fixed one is good enough.
        if isPlaceholder(cfg.JWTSecret) {
            cfg.JWTSecret = "demo-secret"
        }
        return cfg, nil
    }

    var missing []string
    switch cfg.DBDriver {
    case DriverMySQL:
        missing = appendMissing(missing, "DB_USER", cfg.DBUser)
        missing = appendMissing(missing, "DB_HOST", cfg.DBHost)
        missing = appendMissing(missing, "DB_NAME", cfg.DBName)
    case DriverSQLite:
        missing = appendMissing(missing, "DB_PATH", cfg.DBPath)
    default:
        return cfg, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
    }
    if isPlaceholder(cfg.JWTSecret) {
        missing = append(missing, "JWT_SECRET")
    }
    if len(missing) > 0 {
        return cfg, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
    }
    return cfg, nil
}

// isDemoStore reports whether the store address is absent or still the
// template placeholder.  Only the MySQL driver has a network address.
func isDemoStore(cfg Config) bool {
    if cfg.DBDriver != DriverMySQL {
        return false
    }
    return isPlaceholder(cfg.DBHost)
}

func isPlaceholder(v string) bool {
    v = strings.TrimSpace(v)
    return v == "" || strings.Contains(strings.ToLower(v), "placeholder")
}

func appendMissing(dst []string, key, val string) []string {
    if strings.TrimSpace(val) == "" {
        return append(dst, key)
    }
    return dst
}

func splitList(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}

func firstNonEmpty(vals ...string) string {
    for _, v := range vals {
        if v != "" {
            return v
        }
    }
    return ""
}

// mustInt-style parsing is lenient here: malformed numbers fall back to the
// default rather than aborting startup.
func parseIntDefault(s string, d int) int {
    n, err := strconv.Atoi(strings.TrimSpace(s))
    if err != nil {
        return d
    }
    return n
}

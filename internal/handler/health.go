package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "database/sql"
    "net/http" // net/http provides status codes and response helpers
    "time"

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is a liveness probe: it answers "ok" whenever the process serves
// HTTP.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready reports whether the store answers a ping within two seconds, and
// whether the server runs in demo mode.
func Ready(db *sql.DB, demo bool) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := db.PingContext(ctx); err != nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "demo": demo})
        }
        return c.JSON(http.StatusOK, echo.Map{"status": "ready", "demo": demo})
    }
}

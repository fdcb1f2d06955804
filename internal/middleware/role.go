package middleware // middleware provides shared request processing for handlers

import (
    "context"
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
    "github.com/rs/zerolog"
)

// AdminChecker answers whether a user currently holds the admin role.
type AdminChecker interface {
    IsAdmin(ctx context.Context, userID uint64) (bool, error)
}

// RequireAdmin aborts with 403 unless the authenticated user is an active
// admin.  The role is looked up on every request rather than trusted from
// the token, so demoting or deactivating a user takes effect immediately.
// It must run after JWTAuth.  A failing lookup answers 503 and is logged.
func RequireAdmin(checker AdminChecker, log *zerolog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id, ok := UserID(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
            }
            admin, err := checker.IsAdmin(c.Request().Context(), id)
            if err != nil {
                if log != nil {
                    log.Error().Err(err).Uint64("user_id", id).Msg("admin role check failed")
                }
                return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "role_check_failed"})
            }
            if !admin {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}

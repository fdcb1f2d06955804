package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/winery-visit-booking/internal/utils"
)

// Context keys set by JWTAuth and OptionalAuth.
const (
    CtxUserID    = "user_id"    // uint64
    CtxRole      = "role"       // string
    CtxSessionID = "session_id" // string, the token's jti
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject, role and session id into the request
// context.  Browsers cannot set headers on a WebSocket handshake, so for
// upgrade requests the token may also come in the access_token query
// parameter.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := bearerToken(c.Request())
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            setClaims(c, claims)
            return next(c)
        }
    }
}

// OptionalAuth is JWTAuth for routes that also serve anonymous callers:
// a valid token populates the context, anything else is ignored.
func OptionalAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if raw := bearerToken(c.Request()); raw != "" {
                if claims, err := utils.ParseAccessToken(secret, raw); err == nil {
                    setClaims(c, claims)
                }
            }
            return next(c)
        }
    }
}

func setClaims(c echo.Context, claims utils.Claims) {
    c.Set(CtxUserID, claims.UserID)
    c.Set(CtxRole, claims.Role)
    c.Set(CtxSessionID, claims.SessionID)
}

func bearerToken(r *http.Request) string {
    if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
        return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
    }
    if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
        return r.URL.Query().Get("access_token")
    }
    return ""
}

package middleware

// identity.go holds the accessors for the identity stored by JWTAuth.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// UserID returns the authenticated user's id.  ok is false for anonymous
// requests.
func UserID(c echo.Context) (id uint64, ok bool) {
    id, ok = c.Get(CtxUserID).(uint64)
    return id, ok && id > 0
}

// SessionID returns the session (token jti) of the request, or "".
func SessionID(c echo.Context) string {
    s, _ := c.Get(CtxSessionID).(string)
    return s
}

// userKey is the rate-limit identity: the user id, or "anon".
func userKey(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}

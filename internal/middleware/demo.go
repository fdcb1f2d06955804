package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// DemoMessage is shown to clients that try to write in demo mode.
const DemoMessage = "Modo Demo Activo: no se pueden realizar cambios sin configurar las variables de entorno."

// DemoGuard rejects every state-changing request with 503 while demo mode
// is on.  Reads pass through.
func DemoGuard(enabled bool) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        if !enabled {
            return next
        }
        return func(c echo.Context) error {
            switch c.Request().Method {
            case http.MethodGet, http.MethodHead, http.MethodOptions:
                return next(c)
            }
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "demo_mode", "message": DemoMessage})
        }
    }
}

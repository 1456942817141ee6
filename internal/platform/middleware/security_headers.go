package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecurityHeaders sets response headers suited to a JSON API that returns
// patient records.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "no-referrer")

			// Responses carry patient data.
			h.Set("Cache-Control", "no-store")

			return next(c)
		}
	}
}

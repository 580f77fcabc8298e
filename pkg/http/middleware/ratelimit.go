package middleware

import (
	"net/http"

	"PerfDash/pkg/ratelimit"

	"github.com/labstack/echo/v4"
)

// RateLimit rejects requests with 429 once the caller's bucket is empty.
// Callers are keyed by their real IP.
func RateLimit(l *ratelimit.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": http.StatusText(http.StatusTooManyRequests),
				})
			}
			return next(c)
		}
	}
}

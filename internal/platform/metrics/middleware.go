package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eessp/eessp/internal/platform/apperr"
)

// Middleware records request count, latency and in-flight requests. The path
// label is the registered route pattern so query strings never explode the
// label cardinality.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			HTTPRequestInFlight.Inc()
			defer HTTPRequestInFlight.Dec()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = apperr.StatusOf(err)
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}

			HTTPRequestTotals.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			HTTPRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

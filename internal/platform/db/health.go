package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

// Pinger is the part of the pool the health endpoint needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsFunc reports pool statistics; nil when unavailable.
type StatsFunc func() *PoolStats

// GetPoolStats returns connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

// PoolHealthHandler wires HealthHandler to a live pool.
func PoolHealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return HealthHandler(pool, func() *PoolStats { return GetPoolStats(pool) })
}

// HealthHandler pings the database with a 5 second budget. It answers 200
// {"status":"healthy"} or 503 {"status":"unhealthy","error":...}.
func HealthHandler(p Pinger, stats StatsFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		body := map[string]interface{}{"status": "healthy"}
		if stats != nil {
			if s := stats(); s != nil {
				body["pool"] = s
			}
		}

		if err := p.Ping(ctx); err != nil {
			body["status"] = "unhealthy"
			body["error"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, body)
		}
		return c.JSON(http.StatusOK, body)
	}
}

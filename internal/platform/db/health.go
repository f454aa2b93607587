package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const pingTimeout = 5 * time.Second

// PoolStats is a JSON view of pgxpool.Stat.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

func statsOf(pool *pgxpool.Pool) *PoolStats {
	s := pool.Stat()
	return &PoolStats{
		TotalConns:      s.TotalConns(),
		IdleConns:       s.IdleConns(),
		AcquiredConns:   s.AcquiredConns(),
		MaxConns:        s.MaxConns(),
		AcquireCount:    s.AcquireCount(),
		AcquireDuration: s.AcquireDuration().String(),
	}
}

// Health is the body of /health/db.
type Health struct {
	Status string     `json:"status"`
	Store  string     `json:"store"`
	Pool   *PoolStats `json:"pool,omitempty"`
	Error  string     `json:"error,omitempty"`
}

func (h Health) Healthy() bool { return h.Status == "healthy" }

// Check pings the pool. A nil pool means the in-memory store, which is
// always healthy.
func Check(ctx context.Context, pool *pgxpool.Pool) Health {
	if pool == nil {
		return Health{Status: "healthy", Store: "memory"}
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	h := Health{Status: "healthy", Store: "postgres"}
	if err := pool.Ping(ctx); err != nil {
		h.Status = "unhealthy"
		h.Error = err.Error()
	}
	h.Pool = statsOf(pool)
	return h
}

// HealthHandler serves Check, answering 503 when storage is down.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := Check(c.Request().Context(), pool)
		code := http.StatusOK
		if !h.Healthy() {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, h)
	}
}

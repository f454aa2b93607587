package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 50,
		BurstSize:         100,
	}
}

// limiterStore holds one token bucket per caller key.
type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	config   RateLimitConfig
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	return &limiterStore{
		limiters: make(map[string]*rate.Limiter),
		config:   cfg,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Limit(s.config.RequestsPerSecond), s.config.BurstSize)
		s.limiters[key] = l
	}
	return l
}

// retryAfterSeconds is the whole number of seconds until l has a token again.
func retryAfterSeconds(l *rate.Limiter) int {
	if l.Limit() <= 0 {
		return 1
	}
	missing := 1 - l.Tokens()
	if missing <= 0 {
		return 1
	}
	secs := int(math.Ceil(missing / float64(l.Limit())))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// RateLimit limits requests per authenticated user, or per client IP when
// the request carries no user. Place it after the JWT middleware. Zero
// fields fall back to DefaultRateLimitConfig.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	def := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = def.BurstSize
	}
	store := newLimiterStore(cfg)
	limitHeader := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if uid, ok := c.Get("user_id").(int64); ok {
				key = "user:" + strconv.FormatInt(uid, 10)
			}

			l := store.get(key)
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limitHeader)
			if !l.AllowN(time.Now(), 1) {
				h.Set("Retry-After", strconv.Itoa(retryAfterSeconds(l)))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}

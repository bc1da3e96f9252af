package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/zoubaax/on-time/internal/api/metrics"
	"github.com/zoubaax/on-time/internal/api/response"
)

// CounterStore counts hits per key in fixed windows.
type CounterStore interface {
	// Hit increments the counter for key and returns the count in the current
	// window and the time that window ends.
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Time, error)
}

// RateLimitConfig configures one limiter.
type RateLimitConfig struct {
	// Scope names the limiter in keys and metrics.
	Scope   string
	Limit   int64
	Window  time.Duration
	Message string
}

// RateLimit rejects requests with 429 once a client IP exceeds cfg.Limit
// requests in the current window. Store failures let the request through.
func RateLimit(store CounterStore, cfg RateLimitConfig, log zerolog.Logger) echo.MiddlewareFunc {
	if cfg.Message == "" {
		cfg.Message = "Too many requests from this IP, please try again later."
	}
	limit := strconv.FormatInt(cfg.Limit, 10)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := cfg.Scope + ":" + c.RealIP()
			count, reset, err := store.Hit(c.Request().Context(), key, cfg.Window)
			if err != nil {
				log.Warn().Err(err).Str("scope", cfg.Scope).Msg("rate limit store unavailable")
				return next(c)
			}

			remaining := cfg.Limit - count
			if remaining < 0 {
				remaining = 0
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

			if count > cfg.Limit {
				retry := int64(time.Until(reset).Seconds())
				if retry < 1 {
					retry = 1
				}
				h.Set(echo.HeaderRetryAfter, strconv.FormatInt(retry, 10))
				metrics.RateLimitedTotal.WithLabelValues(cfg.Scope).Inc()
				return response.Fail(c, http.StatusTooManyRequests, cfg.Message, "", nil)
			}
			return next(c)
		}
	}
}

// MemoryStore is a process-local CounterStore used when Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]memoryWindow
	now     func() time.Time
}

type memoryWindow struct {
	count int64
	reset time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]memoryWindow), now: time.Now}
}

func (s *MemoryStore) Hit(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.reset) {
		start := now.Truncate(window)
		w = memoryWindow{reset: start.Add(window)}
	}
	w.count++
	s.windows[key] = w
	return w.count, w.reset, nil
}

// Sweep removes expired windows. Run it periodically with StartSweeper.
func (s *MemoryStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, w := range s.windows {
		if !now.Before(w.reset) {
			delete(s.windows, k)
		}
	}
}

// StartSweeper calls Sweep every interval until ctx is cancelled.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func serve(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	return serveWithHeader(e, ip, "")
}

// serveWithHeader sends a request from ip, optionally claiming to forward xff.
func serveWithHeader(e *echo.Echo, ip, xff string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":40000"
	if xff != "" {
		req.Header.Set(echo.HeaderXForwardedFor, xff)
		req.Header.Set(echo.HeaderXRealIP, xff)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newLimitedEcho(store CounterStore, limit int64) *echo.Echo {
	e := echo.New()
	e.IPExtractor = echo.ExtractIPDirect()
	e.Use(RateLimit(store, RateLimitConfig{Scope: "test", Limit: limit, Window: time.Minute}, zerolog.Nop()))
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	return e
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	e := newLimitedEcho(NewMemoryStore(), 2)

	for i := 0; i < 2; i++ {
		if rec := serve(e, "10.0.0.1"); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, rec.Code)
		}
	}
	rec := serve(e, "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected remaining header: %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
	if rec.Header().Get(echo.HeaderRetryAfter) == "" {
		t.Fatalf("missing Retry-After")
	}

	if rec := serve(e, "10.0.0.2"); rec.Code != http.StatusNoContent {
		t.Fatalf("other IP should not be limited, got %d", rec.Code)
	}
}

func TestRateLimit_IgnoresForwardedHeaders(t *testing.T) {
	e := newLimitedEcho(NewMemoryStore(), 2)

	codes := make([]int, 0, 4)
	for _, forwarded := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3", "4.4.4.4"} {
		codes = append(codes, serveWithHeader(e, "203.0.113.9", forwarded).Code)
	}
	if codes[2] != http.StatusTooManyRequests || codes[3] != http.StatusTooManyRequests {
		t.Fatalf("forwarded headers must not reset the counter, got %v", codes)
	}
}

func TestMemoryStore_WindowResets(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2024, 1, 1, 12, 0, 10, 0, time.UTC)
	s.now = func() time.Time { return now }

	for i := 1; i <= 3; i++ {
		n, reset, _ := s.Hit(context.Background(), "k", time.Minute)
		if n != int64(i) {
			t.Fatalf("expected count %d, got %d", i, n)
		}
		if !reset.Equal(time.Date(2024, 1, 1, 12, 1, 0, 0, time.UTC)) {
			t.Fatalf("unexpected reset %v", reset)
		}
	}

	now = now.Add(time.Minute)
	if n, _, _ := s.Hit(context.Background(), "k", time.Minute); n != 1 {
		t.Fatalf("expected counter reset, got %d", n)
	}

	now = now.Add(2 * time.Minute)
	s.Sweep()
	if len(s.windows) != 0 {
		t.Fatalf("expected expired windows swept, got %d", len(s.windows))
	}
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string, time.Duration) (int64, time.Time, error) {
	return 0, time.Time{}, errors.New("redis down")
}

func TestRateLimit_StoreFailureFailsOpen(t *testing.T) {
	e := newLimitedEcho(failingStore{}, 1)
	for i := 0; i < 3; i++ {
		if rec := serve(e, "10.0.0.1"); rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	}
}

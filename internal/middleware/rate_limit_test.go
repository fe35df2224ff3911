package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 5) // 10 per minute, burst of 5
	defer rl.Stop()

	subject := "auth0|operator-1"

	// First 5 requests should be allowed (burst)
	for i := 0; i < 5; i++ {
		if !rl.Allow(subject) {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	// 6th request should be rate limited (exceeded burst)
	if rl.Allow(subject) {
		t.Error("Request 6 should be rate limited")
	}
}

func TestRateLimiter_DifferentSubjects(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 3)
	defer rl.Stop()

	subject1 := "auth0|operator-1"
	subject2 := "auth0|operator-2"

	// Exhaust subject1's burst
	for i := 0; i < 3; i++ {
		if !rl.Allow(subject1) {
			t.Errorf("Subject1 request %d should be allowed", i+1)
		}
	}

	if rl.Allow(subject1) {
		t.Error("Subject1 should be rate limited")
	}

	// Subject2 should still have its full burst
	for i := 0; i < 3; i++ {
		if !rl.Allow(subject2) {
			t.Errorf("Subject2 request %d should be allowed", i+1)
		}
	}
}

func requestWithSubject(e *echo.Echo, subject string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if subject != "" {
		ctx := context.WithValue(req.Context(), SubjectKey, subject)
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestRateLimitMiddleware_SkipsAnonymousRequests(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(1, 1)
	defer rl.Stop()

	handler := RateLimitMiddleware(rl)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// Without a subject the limiter never engages
	for i := 0; i < 5; i++ {
		c := requestWithSubject(e, "")
		if err := handler(c); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if c.Response().Status != http.StatusOK {
			t.Errorf("expected 200, got %d", c.Response().Status)
		}
	}
}

func TestRateLimitMiddleware_LimitsAuthenticatedRequests(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(1, 2)
	defer rl.Stop()

	handler := RateLimitMiddleware(rl)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		c := requestWithSubject(e, "auth0|operator-1")
		if err := handler(c); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if c.Response().Status != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i+1, c.Response().Status)
		}
	}

	c := requestWithSubject(e, "auth0|operator-1")
	if err := handler(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Response().Status != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", c.Response().Status)
	}
	if c.Response().Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

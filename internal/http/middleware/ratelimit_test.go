package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func limitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", rl.Middleware(), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return r
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Close()
	r := limitedRouter(rl)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Close()
	r := limitedRouter(rl)

	first := httptest.NewRequest(http.MethodGet, "/ping", nil)
	first.Header.Set("X-Forwarded-For", "10.0.0.1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, first)
	if w.Code != http.StatusOK {
		t.Fatalf("first client status = %d", w.Code)
	}

	again := httptest.NewRequest(http.MethodGet, "/ping", nil)
	again.Header.Set("X-Forwarded-For", "10.0.0.1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, again)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("exhausted client status = %d, want 429", w.Code)
	}

	other := httptest.NewRequest(http.MethodGet, "/ping", nil)
	other.Header.Set("X-Forwarded-For", "10.0.0.2")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, other)
	if w.Code != http.StatusOK {
		t.Fatalf("fresh client status = %d, want 200", w.Code)
	}
}

func TestRateLimiterSweepsStaleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Close()

	rl.allow("10.0.0.1")
	rl.allow("10.0.0.2")

	rl.removeStale(time.Now().Add(-time.Hour))
	rl.mu.Lock()
	n := len(rl.clients)
	rl.mu.Unlock()
	if n != 2 {
		t.Fatalf("fresh buckets swept, %d left", n)
	}

	rl.removeStale(time.Now().Add(time.Hour))
	rl.mu.Lock()
	n = len(rl.clients)
	rl.mu.Unlock()
	if n != 0 {
		t.Fatalf("stale buckets not swept, %d left", n)
	}
}

func TestRateLimiterCloseIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.Close()
	rl.Close()
}

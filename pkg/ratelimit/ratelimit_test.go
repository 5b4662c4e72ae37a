package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter(t *testing.T) {
	// Burst of 2: the bucket starts with two tokens.
	limiter := NewLimiter(10, 2)

	assert.True(t, limiter.Allow("a"), "first request should be allowed")
	assert.True(t, limiter.Allow("a"), "second request should be allowed")
	assert.False(t, limiter.Allow("a"), "third request should be rate limited")

	// Keys are independent
	assert.True(t, limiter.Allow("b"))

	// 10 req/s refills one token every 100ms
	time.Sleep(150 * time.Millisecond)
	assert.True(t, limiter.Allow("a"), "request after waiting should be allowed")
}

func TestCleanup(t *testing.T) {
	limiter := NewLimiter(10, 2)
	now := time.Now()
	limiter.now = func() time.Time { return now }

	limiter.Allow("old")
	now = now.Add(time.Minute)
	limiter.Allow("new")

	assert.Equal(t, 1, limiter.Cleanup(30*time.Second))
	assert.Equal(t, 1, limiter.Len())
}

func TestMiddleware(t *testing.T) {
	limiter := NewLimiter(10, 1)
	handler := limiter.Middleware(func(*http.Request) string { return "k" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/check", nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/check", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestIPKeyFunc(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", IPKeyFunc(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", IPKeyFunc(req))
}

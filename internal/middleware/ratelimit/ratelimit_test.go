package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowBurstThenReject(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerSecond: 0.001, Burst: 3})

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d within burst", i)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "clients have separate buckets")
	assert.Equal(t, 2, rl.ActiveClients())
}

func TestNewLimiterDefaults(t *testing.T) {
	rl := NewLimiter(Config{})
	def := DefaultConfig()
	assert.Equal(t, def.Burst, rl.burst)
	assert.InDelta(t, def.RequestsPerSecond, float64(rl.limit), 1e-9)
}

func TestMiddleware(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerSecond: 0.001, Burst: 1})
	ip := func(*http.Request) string { return "192.0.2.1" }
	var limited int
	h := rl.Middleware(ip, func(w http.ResponseWriter, _ *http.Request) {
		limited++
		w.WriteHeader(http.StatusTooManyRequests)
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, 1, limited)
}

func TestMiddlewareDefaultResponse(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerSecond: 0.001, Burst: 1})
	h := rl.Middleware(func(*http.Request) string { return "x" }, nil)(http.NotFoundHandler())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

// Package ratelimit throttles clients with one token bucket per client IP.
package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Limiter hands out a token bucket per client. Idle buckets expire from
// the cache and are recreated full.
type Limiter struct {
	clients *cache.Cache
	limit   rate.Limit
	burst   int
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerSecond float64
	Burst             int
	// IdleTTL is how long an untouched client bucket is kept.
	IdleTTL         time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 20,
		Burst:             40,
		IdleTTL:           10 * time.Minute,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter creates a new rate limiter
func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = def.RequestsPerSecond
	}
	if config.Burst <= 0 {
		config.Burst = def.Burst
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = def.IdleTTL
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}

	return &Limiter{
		clients: cache.New(config.IdleTTL, config.CleanupInterval),
		limit:   rate.Limit(config.RequestsPerSecond),
		burst:   config.Burst,
	}
}

func (rl *Limiter) bucket(clientIP string) *rate.Limiter {
	if v, ok := rl.clients.Get(clientIP); ok {
		// Touch to extend the idle TTL.
		rl.clients.SetDefault(clientIP, v)
		return v.(*rate.Limiter)
	}
	fresh := rate.NewLimiter(rl.limit, rl.burst)
	// Add fails when another request created the bucket first.
	if err := rl.clients.Add(clientIP, fresh, cache.DefaultExpiration); err != nil {
		if v, ok := rl.clients.Get(clientIP); ok {
			return v.(*rate.Limiter)
		}
	}
	return fresh
}

// Allow checks if a request from the given IP should be allowed
func (rl *Limiter) Allow(clientIP string) bool {
	return rl.bucket(clientIP).Allow()
}

// RetryAfter estimates how long the client must wait for the next token.
func (rl *Limiter) RetryAfter(clientIP string) time.Duration {
	r := rl.bucket(clientIP).Reserve()
	d := r.Delay()
	r.Cancel()
	return d
}

// ActiveClients returns the number of currently tracked clients
func (rl *Limiter) ActiveClients() int {
	return rl.clients.ItemCount()
}

// Middleware rejects requests over the limit. onLimit writes the response
// for rejected requests; nil writes a plain 429.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := extractIP(r)

			if !rl.Allow(clientIP) {
				secs := int(rl.RetryAfter(clientIP).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

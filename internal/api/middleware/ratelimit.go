package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedLimiter tracks one token bucket per key with last-access eviction.
// Keys are IPs for the global limit and ip+email pairs for login attempts.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*keyedEntry
	rate     rate.Limit
	burst    int
}

type keyedEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewKeyedLimiter(rps float64, burst int) *KeyedLimiter {
	return &KeyedLimiter{
		limiters: make(map[string]*keyedEntry),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// Allow reports whether the key may proceed and consumes a token if so.
func (kl *KeyedLimiter) Allow(key string) bool {
	now := time.Now()

	kl.mu.Lock()
	entry, ok := kl.limiters[key]
	if !ok {
		entry = &keyedEntry{limiter: rate.NewLimiter(kl.rate, kl.burst)}
		kl.limiters[key] = entry
	}
	entry.lastSeen = now
	kl.mu.Unlock()

	return entry.limiter.Allow()
}

// Cleanup evicts buckets idle longer than maxAge.
func (kl *KeyedLimiter) Cleanup(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)
	kl.mu.Lock()
	defer kl.mu.Unlock()
	for key, entry := range kl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(kl.limiters, key)
		}
	}
}

// RateLimit returns middleware that limits requests per client IP.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := NewKeyedLimiter(rps, burst)

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			limiter.Cleanup(10 * time.Minute)
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// X-Real-IP is set by chi's RealIP middleware upstream
			ip := r.Header.Get("X-Real-IP")
			if ip == "" {
				ip = r.RemoteAddr
			}

			if !limiter.Allow(ip) {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

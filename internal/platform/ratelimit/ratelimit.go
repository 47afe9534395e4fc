// Package ratelimit throttles the unauthenticated account endpoints. A
// sliding window per client IP keeps credential stuffing and registration
// floods off the login path without touching authenticated traffic.
package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"landreg/pkg/requestcontext"
)

// Result reports one window check.
type Result struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// Limiter is an in-memory sliding-window rate limiter. Not distributed: each
// instance enforces its own window, which is acceptable for the login surface.
type Limiter struct {
	limit  int
	window time.Duration

	mu        sync.Mutex
	buckets   map[string][]time.Time
	lastSweep time.Time
}

// NewLimiter allows limit requests per key per window.
func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string][]time.Time),
	}
}

// Allow records one request for key and reports whether it fits the window.
func (l *Limiter) Allow(key string, now time.Time) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	l.sweep(cutoff, now)
	stamps := l.buckets[key]
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	stamps = stamps[i:]

	if len(stamps) >= l.limit {
		l.buckets[key] = stamps
		return Result{
			Allowed: false,
			Limit:   l.limit,
			ResetAt: stamps[0].Add(l.window),
		}
	}

	stamps = append(stamps, now)
	l.buckets[key] = stamps
	return Result{
		Allowed:   true,
		Remaining: l.limit - len(stamps),
		Limit:     l.limit,
		ResetAt:   stamps[0].Add(l.window),
	}
}

// sweep drops buckets whose every stamp has aged out, at most once per
// window, so idle client IPs do not accumulate for the process lifetime.
// Caller holds the mutex.
func (l *Limiter) sweep(cutoff, now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for key, stamps := range l.buckets {
		if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Reset clears the window for a key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Middleware keys the limiter on the client IP recorded by the metadata
// middleware and answers 429 with standard rate-limit headers when exceeded.
func Middleware(limiter *Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			if ip == "" {
				ip = r.RemoteAddr
			}

			result := limiter.Allow(ip, requestcontext.Now(ctx))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				logger.WarnContext(ctx, "rate limit exceeded",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				retryAfter := max(int(time.Until(result.ResetAt).Seconds()), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limited","error_description":"too many requests, slow down"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hoteleiro/breakfast-pass/internal/http/response"
	"github.com/hoteleiro/breakfast-pass/internal/ratelimit"
)

// RateLimitConfig defines one endpoint's budget. The namespace partitions
// the limiter keyspace so different budgets never share counters.
type RateLimitConfig struct {
	Namespace string
	Requests  int
	Window    time.Duration
	KeyFunc   func(r *http.Request) string
	SkipFunc  func(r *http.Request) bool
}

// RateLimiter wires a budget onto the shared limiter as chi middleware.
type RateLimiter struct {
	limiter *ratelimit.Limiter
	config  RateLimitConfig
}

func NewRateLimiter(limiter *ratelimit.Limiter, config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = ClientIP
	}
	return &RateLimiter{limiter: limiter, config: config}
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.config.SkipFunc != nil && rl.config.SkipFunc(r) {
				next.ServeHTTP(w, r)
				return
			}

			res := rl.limiter.Check(r.Context(), rl.config.Namespace, rl.config.KeyFunc(r), rl.config.Window, rl.config.Requests)
			if !res.Allowed {
				response.RateLimit(w, "Too many requests. Try again later.", int(res.RetryAfter.Seconds()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the real client IP from the request
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take the first IP if there are multiple
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

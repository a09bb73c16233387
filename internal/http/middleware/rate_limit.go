package middleware

import (
	"net"
	"net/http"

	"github.com/razzbabu4/diagnostic-center-server/internal/http/response"
	"github.com/razzbabu4/diagnostic-center-server/internal/platform/cache"
	"github.com/razzbabu4/diagnostic-center-server/pkg/logger"
)

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	Prefix   string                         // Namespace for the counters of one route group
	KeyFunc  func(r *http.Request) []string // Function to generate rate limit keys
	SkipFunc func(r *http.Request) bool     // Function to skip rate limiting
}

// RateLimiter provides rate limiting functionality
type RateLimiter struct {
	limiter cache.Limiter
	config  RateLimitConfig
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limiter cache.Limiter, config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = ClientIPKeyFunc
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

			for _, key := range rl.config.KeyFunc(r) {
				ok, err := rl.limiter.Allow(r.Context(), rl.config.Prefix+":"+key)
				if err != nil {
					// Fail open: the limiter store is not a hard dependency.
					logger.WarnContext(r.Context(), "Rate limit check failed", "error", err)
					continue
				}
				if !ok {
					response.RateLimit(w, "Too many requests. Try again later.")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIPKeyFunc keys the limit on the client address.
func ClientIPKeyFunc(r *http.Request) []string {
	if ip := getClientIP(r); ip != "" {
		return []string{"ip:" + ip}
	}
	return nil
}

// getClientIP returns the peer address. Forwarding headers are only honoured
// when the router runs behind a trusted proxy, which rewrites RemoteAddr.
func getClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

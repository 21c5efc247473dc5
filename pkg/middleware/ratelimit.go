package middleware

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/agristore/storefront-api/pkg/logger"
	"github.com/agristore/storefront-api/pkg/ratelimit"
)

// RateLimiterMiddleware applies a per-client-IP token bucket to every
// request it wraps.
type RateLimiterMiddleware struct {
	limiter *ratelimit.IPRateLimiter
	logger  logger.Logger
}

// NewRateLimiterMiddleware creates a new RateLimiterMiddleware
func NewRateLimiterMiddleware(limiter *ratelimit.IPRateLimiter, logger logger.Logger) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		limiter: limiter,
		logger:  logger,
	}
}

// Handler wraps the next handler with rate limiting.
func (m *RateLimiterMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		if !m.limiter.Allow(ip) {
			m.logger.Warn("Rate limit exceeded", "ip", ip, "path", r.URL.Path)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)

			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"error":   "Too many requests, please try again later",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client address, preferring the first hop recorded
// by a proxy.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)

	if err != nil {
		return r.RemoteAddr
	}

	return host
}

package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
)

const msgThrottled = "Request was throttled."

// rateLimitByIP rejects operations once the client IP runs out of tokens.
// A nil limiter lets everything through.
func (s *Server) rateLimitByIP(ctx huma.Context, next func(huma.Context)) {
	if s.tokenLimiter == nil {
		next(ctx)
		return
	}

	r, _ := humachi.Unwrap(ctx)
	key := getClientIP(r)

	if !s.tokenLimiter.Allow(key) {
		s.metrics.rateLimitRejects.Inc()
		s.logger.Warn("Rate limit exceeded",
			"ip", key,
			"path", r.URL.Path,
		)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, msgThrottled)
		return
	}

	next(ctx)
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

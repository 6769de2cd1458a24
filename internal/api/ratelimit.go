package api

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/spacemark/pagecache/internal/http/response"
)

// rateLimit rejects clients that exceed the configured request rate with 429.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := clientKey(r)
		if !s.limiter.Allow(key) {
			s.logger.Warn("rate limit exceeded", slog.String("client", key), slog.String("path", r.URL.Path))
			w.Header().Set("Retry-After", "1")
			response.Error(w, http.StatusTooManyRequests, "too many requests", s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies the caller. RealIP has already rewritten RemoteAddr from proxy headers.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

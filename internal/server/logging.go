package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mssola/useragent"

	"github.com/teslastreamer/teslastreamer/internal/geoip"
)

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach Flush and SetWriteDeadline on
// the underlying writer, which the relay needs.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// requestLogger logs one line per request after it completes. geo may be nil.
func requestLogger(geo *geoip.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/health" {
				next.ServeHTTP(w, r)
				return
			}

			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(recorder, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
			}
			if id := middleware.GetReqID(r.Context()); id != "" {
				attrs = append(attrs, "request_id", id)
			}
			if ua := r.UserAgent(); ua != "" {
				parsed := useragent.New(ua)
				name, version := parsed.Browser()
				attrs = append(attrs, "browser", name, "browser_version", version, "os", parsed.OS(), "bot", parsed.Bot())
			}
			if rng := r.Header.Get("Range"); rng != "" {
				attrs = append(attrs, "range", rng)
			}
			if country := geo.Country(r.RemoteAddr); country != "" {
				attrs = append(attrs, "country", country)
			}

			slog.Info("http request", attrs...)
		})
	}
}

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/teslastreamer/teslastreamer/internal/database"
	"github.com/teslastreamer/teslastreamer/internal/geoip"
	"github.com/teslastreamer/teslastreamer/internal/ratelimit"
	"github.com/teslastreamer/teslastreamer/internal/video"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	DB           database.DBTX
	Pinger       Pinger
	GeoIP        *geoip.Resolver
	BaseURL      string
	ProxyTimeout time.Duration
}

type Server struct {
	router       chi.Router
	pinger       Pinger
	videoHandler *video.Handler
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.GeoIP))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(SecurityConfig{BaseURL: cfg.BaseURL}))

	s := &Server{router: r, pinger: cfg.Pinger}

	if cfg.DB != nil {
		s.videoHandler = video.NewHandler(cfg.DB, cfg.ProxyTimeout)
	}

	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)

	if s.videoHandler != nil {
		// The relay is left unlimited: seeking issues a burst of range requests.
		pageLimiter := ratelimit.NewLimiter(2, 20)
		s.router.Group(func(r chi.Router) {
			r.Use(pageLimiter.Middleware)
			r.Get("/", s.videoHandler.PlayerPage)
			r.Get("/login", s.videoHandler.PlayerPage)
			r.Get("/videos", s.videoHandler.List)
		})
		s.router.Get("/proxy/video/{id}", s.videoHandler.Proxy)
		s.router.Head("/proxy/video/{id}", s.videoHandler.Proxy)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			slog.Warn("health: database ping failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Package web provides the HTTP host: the upload page, the session API and
// the HTMX fragments that drive it.
package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/tabconv/internal/config"
	"github.com/JonMunkholm/tabconv/internal/core"
	"github.com/JonMunkholm/tabconv/internal/logging"
	"github.com/JonMunkholm/tabconv/internal/web/middleware"
)

// AuditLog lists recorded audit events. The Postgres recorder implements it.
type AuditLog interface {
	Recent(ctx context.Context, sessionID string, limit int) ([]core.AuditEvent, error)
}

// Server is the HTTP server for tabconv.
type Server struct {
	service *core.Service
	cfg     *config.Config
	audit   AuditLog
	router  *chi.Mux
	limiter *middleware.RateLimiter
	server  *http.Server
}

// NewServer wires middleware and routes. audit may be nil when no audit
// database is configured.
func NewServer(service *core.Service, cfg *config.Config, audit AuditLog) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		audit:   audit,
		router:  chi.NewRouter(),
	}
	if cfg.Rate.Enabled {
		s.limiter = middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(s.securityHeaders)
	if s.limiter != nil {
		s.router.Use(s.limiter.Handler)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(&s.cfg.Security))

		r.Get("/formats", s.handleFormats)
		r.Get("/status", s.handleStatus)
		r.Get("/audit", s.handleAuditLog)

		r.Post("/upload", s.handleUpload)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleSession)
			r.Delete("/", s.handleDiscard)
			r.Get("/preview", s.handlePreview)
			r.Post("/clean", s.handleClean)
			r.Post("/project", s.handleProject)
			r.Post("/chart", s.handleChart)
			r.Get("/convert", s.handleConvert)
			r.Post("/convert", s.handleConvert)
		})
	})
}

// Start listens on the configured address and runs background sweepers
// until ctx is done. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	if s.limiter != nil {
		go s.limiter.StartCleanup(ctx)
	}

	logging.FromContext(ctx).Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

const cspPolicy = "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:"

func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if s.cfg.Security.EnableCSP {
			h.Set("Content-Security-Policy", cspPolicy)
		}
		next.ServeHTTP(w, r)
	})
}

// Package server provides the HTTP upload surface: decode a workbook to list
// its columns, or split it and download the result.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/klytics/sheetsplit/internal/split"
)

// DownloadName is the attachment name of every split download.
const DownloadName = "split-result.xlsx"

// Options configures the server.
type Options struct {
	MaxUploadBytes int64
	Timeout        time.Duration
}

// Server is the HTTP server for sheetsplit.
type Server struct {
	splitter *split.Splitter
	opts     Options
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a new Server instance.
func NewServer(sp *split.Splitter, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	s := &Server{
		splitter: sp,
		opts:     opts,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.opts.Timeout))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/columns", s.handleColumns)
		r.Post("/split", s.handleSplit)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.opts.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server starting", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

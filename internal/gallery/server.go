// Package gallery serves generated chart artifacts over HTTP.
//
// The index page lists every artifact of the latest run, grouped by job,
// and reloads itself when a new run completes.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapcharts/pkg/core"
)

// Config holds configuration for the gallery server.
type Config struct {
	// Dir is the artifact directory.
	Dir  string
	Port int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Server is the gallery HTTP server.
type Server struct {
	dir      string
	port     int
	logger   *slog.Logger
	notifier *Notifier

	mu     sync.RWMutex
	report *core.RunReport
}

// NewServer creates a new gallery server.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		dir:      cfg.Dir,
		port:     cfg.Port,
		logger:   logger,
		notifier: NewNotifier(),
	}
}

// SetReport publishes the report of a finished run and notifies open pages.
func (s *Server) SetReport(rep *core.RunReport) {
	s.mu.Lock()
	s.report = rep
	s.mu.Unlock()
	if rep != nil {
		s.notifier.Broadcast(rep.ID)
	}
}

// Report returns the latest published report, or nil.
func (s *Server) Report() *core.RunReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Notifier returns the server's notifier.
func (s *Server) Notifier() *Notifier {
	return s.notifier
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		s.requestLogger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	h := &handlers{server: s}
	r.Get("/", h.index)
	r.Get("/healthz", h.health)
	r.Get("/events", h.events)
	r.Route("/api", func(r chi.Router) {
		r.Get("/report", h.reportJSON)
		r.Get("/artifacts", h.artifactsJSON)
	})
	r.Handle("/artifacts/*", http.StripPrefix("/artifacts/", http.FileServer(http.Dir(s.dir))))
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Serve starts the server and blocks until ctx is cancelled. Each task
// runs alongside the server in the same group; the first task error
// stops the server.
func (s *Server) Serve(ctx context.Context, tasks ...func(ctx context.Context) error) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting gallery server", "addr", fmt.Sprintf("http://localhost:%d", s.port), "dir", s.dir)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	for _, task := range tasks {
		eg.Go(func() error {
			return task(egctx)
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down gallery server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

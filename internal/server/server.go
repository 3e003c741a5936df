package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/spigell/skill-navigator/internal/dashboard"
	"github.com/spigell/skill-navigator/internal/history"
)

const shutdownTimeout = 10 * time.Second

// Server exposes the dashboard and the application history over HTTP.
type Server struct {
	loader  *dashboard.Loader
	applier *history.Applier
	history history.Store
	logger  *zap.Logger
	router  *chi.Mux
}

func New(loader *dashboard.Loader, applier *history.Applier, store history.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		loader:  loader,
		applier: applier,
		history: store,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	s.routes(r)
	s.router = r

	return s
}

func (s *Server) routes(r chi.Router) {
	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", s.getDashboard)
			r.Post("/refresh", s.refreshDashboard)
			r.Post("/search", s.searchDashboard)
			r.Post("/auto-apply/{id}", s.autoApply)
		})

		r.Get("/applications", s.listApplications)
		r.Put("/applications/{id}/status", s.updateApplicationStatus)
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server started", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/lunabot/core/logger"
	"log/slog"
)

// Router serves /metrics and /healthz.
func (c *Collector) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	return r
}

// Server runs the metrics endpoint.
type Server struct {
	srv *http.Server
}

// NewServer binds the collector's router to addr.
func NewServer(addr string, c *Collector) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           c.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}}
}

// Start serves in the background until Shutdown.
func (s *Server) Start(ctx context.Context) {
	go func() {
		logger.LogEvent(ctx, logger.Metrics, slog.LevelInfo, "metrics.listen",
			slog.String("listen", s.srv.Addr),
		)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogEvent(ctx, logger.Metrics, slog.LevelError, "metrics.listen",
				slog.String("status", "fail"),
				slog.String("listen", s.srv.Addr),
				slog.String("err", err.Error()),
			)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

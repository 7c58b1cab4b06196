// Package server wires the HTTP routes and runs the listener.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/config"
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/health"
	middleware "github.com/mohammed-shakir/geohash-polyfill/internal/core/middleware"
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/observability"
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/router"
)

// Deps are the collaborators the routes need. Metrics and Ready may be nil.
type Deps struct {
	Logger  *slog.Logger
	Handler router.CoverHandler
	Metrics *observability.Provider
	Ready   health.ReadinessReporter
}

// NewRouter builds the route table.
func NewRouter(cfg config.Config, d Deps) http.Handler {
	ready := d.Ready
	if ready == nil {
		ready = health.AlwaysReady{}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recover(d.Logger))
	r.Use(middleware.Logging(d.Logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(ready))
	if cfg.MetricsEnabled && d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	cover := router.HandleCover(d.Logger, cfg, d.Handler)
	r.Get("/cover", cover)
	r.Post("/cover", cover)
	if inv, ok := d.Handler.(router.Invalidator); ok {
		r.Delete("/cover", router.HandleInvalidate(d.Logger, cfg, inv))
	}

	r.Get("/geohash/{code}", router.GeohashInfo())
	r.Get("/geohash/{code}/neighbors", router.GeohashNeighbors())
	r.Get("/geohash/{code}/children", router.GeohashChildren(cfg))
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg config.Config, d Deps) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg, d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		d.Logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

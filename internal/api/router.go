// Package api serves the catalog as read-only JSON over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"channels-go/internal/cache"
	"channels-go/internal/catalog"
)

// Handler holds the dependencies shared by every endpoint.
type Handler struct {
	catalog *catalog.CatalogService
	cache   cache.Cache
	logger  catalog.Logger
}

// NewHandler creates a Handler. A nil cache disables caching.
func NewHandler(svc *catalog.CatalogService, c cache.Cache, logger catalog.Logger) *Handler {
	if c == nil {
		c = cache.Nop{}
	}
	return &Handler{catalog: svc, cache: c, logger: logger}
}

// NewRouter wires the middleware chain and the /api/v1 routes.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(Recoverer(h.logger))
	r.Use(Logger(h.logger))
	r.Use(middleware.StripSlashes)

	r.Get("/health", healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/channels", func(r chi.Router) {
			r.Get("/", h.ListChannels)
			r.Get("/{name}", h.GetChannel)
			r.Get("/{name}/categories/{category}", h.GetChannelCategory)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Get("/{id}", h.GetCategory)
		})

		r.Route("/search", func(r chi.Router) {
			r.Get("/channels/{keyword}", h.SearchChannels)
			r.Get("/categories/{keyword}", h.SearchCategories)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, errorBody{Detail: notFoundDetail})
	})

	return r
}

// NewServer returns an http.Server for handler with conservative timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// Serve runs srv until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

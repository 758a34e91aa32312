package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type RouteOptions struct {
	RequestTimeout time.Duration
	// RateLimit caps requests per second on the REST routes. Zero disables it.
	RateLimit int
}

func DefaultRouteOptions() RouteOptions {
	return RouteOptions{RequestTimeout: 30 * time.Second}
}

// SetupRoutes mounts the REST API and, when stream is non-nil, the WebSocket stream.
func SetupRoutes(handler *Handler, stream http.HandlerFunc, opts RouteOptions) *chi.Mux {
	r := chi.NewRouter()

	for _, middleware := range SetupMiddleware() {
		r.Use(middleware)
	}

	r.Group(func(r chi.Router) {
		for _, middleware := range JSONMiddleware(opts.RequestTimeout) {
			r.Use(middleware)
		}
		r.Use(render.SetContentType(render.ContentTypeJSON))
		if opts.RateLimit > 0 {
			r.Use(RateLimitMiddleware(opts.RateLimit))
		}

		r.Get("/health", handler.HealthCheck)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/status", handler.GetStatus)

			r.Get("/chunks", handler.ListChunks)
			r.Get("/chunks/{x}/{z}", handler.GetChunk)
			r.Get("/chunks/{x}/{z}/mapping", handler.GetChunkMapping)

			r.Post("/focus", handler.Focus)
			r.Post("/discover", handler.Discover)

			r.Route("/buildings", func(r chi.Router) {
				r.Get("/", handler.ListBuildings)
				r.Post("/", handler.PlaceBuilding)
				r.Get("/validate", handler.ValidatePlacement)
				r.Get("/{id}", handler.GetBuilding)
				r.Post("/{id}/rotate", handler.RotateBuilding)
			})

			r.Get("/workers", handler.ListWorkers)
			r.Get("/path", handler.FindPath)
		})
	})

	if stream != nil {
		r.Get("/api/v1/stream", stream)
	}

	return r
}

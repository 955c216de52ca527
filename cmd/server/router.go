package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bskmedia/media-api/internal/api"
	apiMiddleware "github.com/bskmedia/media-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	// Create API handlers using the application's services
	queueHandler := api.NewQueueHandler(app.queueService)
	mediaHandler := api.NewMediaHandler(app.fileStore)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/media", queueHandler.Submit)
		r.Get("/media/status/{job_id}", queueHandler.GetStatus)
		r.Get("/media/completed", queueHandler.ListCompleted)
		r.Get("/media/pending", queueHandler.ListPending)
		r.Delete("/media/acknowledge/{job_id}", queueHandler.Acknowledge)

		// Artifact downloads; registered last so the literal routes above
		// win over the wildcard
		r.Get("/media/{resource}/{version}", mediaHandler.Download)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}

package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/suiyueran97/vision-engine/internal/api"
	apiMiddleware "github.com/suiyueran97/vision-engine/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware) // Add trace IDs for improved error handling

	jobHandler := api.NewJobHandler(app.runner, app.jobStore, app.batchRunner, app.logger)

	// Register routes
	r.Route("/vision_engine", func(r chi.Router) {
		r.Post("/image_analysis", jobHandler.SubmitAnalysis)
		r.Post("/image_analysis_sync", jobHandler.SubmitAnalysisSync)
		r.Get("/get_result/{taskID}", jobHandler.GetResult)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}

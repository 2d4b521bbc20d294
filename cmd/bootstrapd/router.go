package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/scry-bootstrap/internal/api"
	apiMiddleware "github.com/phrazzld/scry-bootstrap/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	bootstrapHandler := api.NewBootstrapHandler(app.orchestrator, app.registry, app.recorder, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.tokens)

	r.Route("/api/bootstrap", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Get("/status", bootstrapHandler.Status)
		r.Post("/run", bootstrapHandler.Run)
		r.Get("/modules", bootstrapHandler.Modules)
		r.Get("/events", bootstrapHandler.Events)
	})

	r.Get("/health", api.Health)

	return r
}

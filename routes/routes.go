package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/login-api/app"
	"github.com/upb/login-api/config"
	"github.com/upb/login-api/handlers"
	"github.com/upb/login-api/middleware"
)

// preflightMaxAge is how long browsers may cache a preflight answer, in seconds
const preflightMaxAge = 300

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	logger := deps.Logger
	crossOrigin := deps.Config.CORS.Domain

	// Core middleware
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	// CORS middleware, only when a cross-origin domain is configured
	if crossOrigin != "" {
		r.Use(middleware.OriginHeader)
		if crossOrigin != config.CrossOriginAny {
			r.Use(middleware.StaticOrigin(crossOrigin))
		}
		r.Use(cors.Handler(corsOptions(crossOrigin)))
	}

	// Health checks
	r.Get("/healthz", deps.Health.HandleHealth)
	r.Get("/readyz", deps.Health.HandleReadiness)

	// Session endpoints
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireJSON(handlers.HandleServiceError, logger))

		authHandler := deps.AuthHandler()
		r.Post("/sign-in", authHandler.HandleSignIn)
		r.With(deps.AuthMiddleware.ExtractSession).Get("/session", authHandler.HandleSession)
		r.Delete("/sign-out", authHandler.HandleSignOut)

		if crossOrigin != "" {
			r.Options("/*", handlers.Preflight)
		}
	})

	// Unknown routes and methods share the same generic 404
	notFound := handlers.NotFound(logger)
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	return r
}

// corsOptions builds the cross-origin policy for the configured domain.
// "any" echoes whatever origin the caller presents; a fixed domain is
// always named by StaticOrigin and cors only adds the preflight headers.
func corsOptions(domain string) cors.Options {
	return cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return domain == config.CrossOriginAny || origin == domain
		},
		AllowedMethods:     handlers.AllowedMethods,
		AllowedHeaders:     handlers.AllowedHeaders,
		AllowCredentials:   true,
		OptionsPassthrough: true,
		MaxAge:             preflightMaxAge,
	}
}

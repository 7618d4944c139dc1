// Package http serves the JSON API under /api/v1.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RequestTimeout bounds a single API request.
const RequestTimeout = 30 * time.Second

// New builds the API router. Everything except the sign-up, sign-in and
// sign-out routes requires a bearer session token.
func New(authV1 *AuthHandler, ledgerV1 *LedgerHandler, allowedOrigins []string) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(RequestTimeout))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", authV1.Routes)

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(authV1.svc))
			r.Use(middleware.AllowContentType("application/json"))
			ledgerV1.Routes(r)
		})
	})

	return router
}

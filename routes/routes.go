package routes

import (
	"net/http"
	"time"

	"github.com/KunalBagaria/tokengate/app"
	"github.com/KunalBagaria/tokengate/handlers"
	appmiddleware "github.com/KunalBagaria/tokengate/middleware"
	"github.com/KunalBagaria/tokengate/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appmiddleware.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", deps.Config.Gate.CustomerIDHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	var dbCheck handlers.DatabaseChecker
	if deps.DB != nil {
		dbCheck = deps.DB
	}
	health := handlers.NewHealthHandler(dbCheck, deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	// OAuth2 login endpoints
	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", handlers.AuthLoginHandler(deps))
		r.Get("/callback", handlers.AuthCallbackHandler(deps))
		r.Get("/logout", handlers.AuthLogoutHandler(deps))
	})

	authMiddleware := deps.AuthMiddleware
	if authMiddleware == nil {
		authMiddleware = appmiddleware.NewAuthMiddleware(nil, deps.Logger)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Customer linking for session-backed gating
		r.Route("/account/customer", func(r chi.Router) {
			r.Use(authMiddleware.RequireSession)
			if deps.CustomerAccounts == nil {
				r.HandleFunc("/", notConfigured("Customer-account store not configured"))
				return
			}
			accounts := handlers.NewAccountHandler(deps.CustomerAccounts, deps.Logger)
			r.Get("/", accounts.HandleGet)
			r.Put("/", accounts.HandleLink)
			r.Delete("/", accounts.HandleUnlink)
		})

		r.Route("/gated", func(r chi.Router) {
			r.Route("/header", func(r chi.Router) {
				if deps.HeaderGate == nil {
					r.HandleFunc("/*", notConfigured("Token gate not configured"))
					return
				}
				r.Use(deps.HeaderGate.Middleware())
				r.Get("/*", handlers.GatedContentHandler("header"))
			})

			r.Route("/session", func(r chi.Router) {
				if deps.SessionGate == nil {
					r.HandleFunc("/*", notConfigured("Session gating not configured"))
					return
				}
				r.Use(deps.SessionGate.Middleware())
				r.Get("/*", handlers.GatedContentHandler("session"))
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusNotFound, "endpoint not found", nil)
	})

	return r
}

func notConfigured(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse{
			Error:   "service_unavailable",
			Message: message,
		})
	}
}

package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/inkwell/newsletter-platform/internal/auth"
)

// SetupRoutes configures all HTTP routes. When authManager is nil the /api
// group is left open, which only makes sense in tests and local dev.
func SetupRoutes(h *Handlers, authManager *auth.Manager, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - allow credentials for auth cookies
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HealthCheck)

	// Auth routes (no auth required)
	if authManager != nil {
		r.Get("/auth/login", authManager.HandleLogin)
		r.Get("/auth/callback", authManager.HandleCallback)
		r.Get("/auth/logout", authManager.HandleLogout)
		r.Get("/auth/user", authManager.HandleUserInfo)
	}

	// Public routes: shared newsletters and unsubscribe links reach readers
	// who have no account.
	r.Get("/public/{id}", h.GetPublicNewsletter)
	r.Get("/unsubscribe", h.Unsubscribe)

	// Management API (protected)
	r.Route("/api", func(r chi.Router) {
		if authManager != nil {
			r.Use(authManager.RequireAuth)
		}

		r.Route("/newsletters", func(r chi.Router) {
			r.Get("/", h.ListNewsletters)
			r.Post("/", h.CreateNewsletter)
			r.Get("/{id}", h.GetNewsletter)
			r.Patch("/{id}", h.UpdateNewsletter)
			r.Delete("/{id}", h.DeleteNewsletter)

			r.Post("/{id}/schedule", h.ScheduleNewsletter)
			r.Delete("/{id}/schedule", h.CancelSchedule)
			r.Post("/{id}/publish", h.PublishNewsletter)
			r.Patch("/{id}/public", h.SetPublicVisibility)

			r.Get("/{id}/sends", h.ListSends)
		})

		r.Route("/subscribers", func(r chi.Router) {
			r.Get("/", h.ListSubscribers)
			r.Post("/", h.AddSubscriber)
			r.Delete("/{id}", h.DeleteSubscriber)
		})

		r.Post("/send/batch", h.SendBatch)
		r.Post("/send/single", h.SendSingle)
	})

	return r
}

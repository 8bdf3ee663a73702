package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the full route tree. Everything except /health requires
// a bearer token signed with secret.
func NewRouter(h *Handler, secret string) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger)                  // structured access log
	r.Use(CORS)

	r.Get("/health", HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(secret))

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.Get("/{id}", h.GetEvent)
			r.Post("/{id}/signup", h.Signup)
			r.Post("/{id}/waitlist", h.JoinWaitlist)
			r.Delete("/{id}/waitlist", h.LeaveWaitlist)
		})
		r.Post("/registrations/{id}/cancel", h.Cancel)
		r.Get("/passes/{id}/qr", h.PassQR)

		r.Route("/me", func(r chi.Router) {
			r.Get("/registrations", h.MyRegistrations)
			r.Get("/passes", h.MyPasses)
			r.Post("/pass-requests", h.RequestPass)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)

			r.Post("/users", h.CreateUser)
			r.Get("/users", h.ListUsers)
			r.Delete("/users/{id}", h.DeleteUser)
			r.Get("/users/{id}/passes", h.ListUserPasses)

			r.Post("/passes", h.CreatePass)
			r.Delete("/passes/{id}", h.DeletePass)

			r.Get("/pass-requests", h.ListPassRequests)
			r.Post("/pass-requests/{id}/approve", h.ApprovePassRequest)
			r.Post("/pass-requests/{id}/reject", h.RejectPassRequest)

			r.Post("/events", h.CreateEvent)
			r.Delete("/events/{id}", h.DeleteEvent)
			r.Get("/events/{id}/registrations", h.ListEventRegistrations)
			r.Post("/events/{id}/registrations", h.AdminAddRegistration)
			r.Get("/events/{id}/waitlist", h.ListWaitlist)

			r.Delete("/registrations/{id}", h.AdminRemoveRegistration)
			r.Post("/waitlist/{id}/promote", h.PromoteWaitlistEntry)
		})
	})

	return r
}

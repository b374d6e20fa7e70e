package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/zenith-events/zenith/internal/domain"
	"github.com/zenith-events/zenith/internal/metrics"
	"github.com/zenith-events/zenith/internal/security"
)

type RouterDeps struct {
	Cache    domain.CacheRepository
	Handler  *Handler
	Verifier security.AccessTokenVerifier

	// Fixed-window budget for authenticated writes. Zero values
	// fall back to 60 requests per minute.
	RateLimit  int
	RateWindow time.Duration
}

func NewRouter(d RouterDeps) http.Handler {
	if d.Cache == nil {
		panic("rest.NewRouter: nil cache")
	}
	if d.Handler == nil {
		panic("rest.NewRouter: nil handler")
	}
	if d.Verifier == nil {
		panic("rest.NewRouter: nil verifier")
	}
	if d.RateLimit <= 0 {
		d.RateLimit = 60
	}
	if d.RateWindow <= 0 {
		d.RateWindow = time.Minute
	}

	r := chi.NewRouter()

	// Request ID + structured access log
	r.Use(RequestID)
	r.Use(HTTPLogger)

	// Panic recovery
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Use(SecurityHeaders)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public catalogue reads, throttled in-process per IP.
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(120, time.Minute))

			r.Get("/events", d.Handler.ListEvents)
			r.Get("/events/{eventID}", d.Handler.GetEvent)
		})

		// Everything else rides on a verified access token, with the
		// shared redis window on top so the budget holds across replicas.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.Verifier))
			r.Use(RateLimitMiddleware(d.Cache, d.RateLimit, d.RateWindow))

			r.Get("/me", d.Handler.Me)
			r.Get("/me/events", d.Handler.ListMyEvents)
			r.Get("/me/requests", d.Handler.ListMyRequests)

			r.Post("/events", d.Handler.CreateEvent)
			r.Patch("/events/{eventID}", d.Handler.UpdateEvent)
			r.Delete("/events/{eventID}", d.Handler.DeleteEvent)

			// moderation
			r.Put("/events/{eventID}/status", d.Handler.SetEventStatus)
			r.Post("/events/{eventID}/review", d.Handler.ReviewEvent)
			r.Get("/events/status", d.Handler.ListEventsByStatus)
			r.Get("/users", d.Handler.ListUsers)

			// join lifecycle
			r.Post("/events/{eventID}/requests", d.Handler.SubmitRequest)
			r.Get("/events/{eventID}/requests", d.Handler.ListEventRequests)
			r.Get("/requests/{requestID}", d.Handler.GetRequest)
			r.Put("/requests/{requestID}/decision", d.Handler.DecideRequest)
			r.Get("/organizer/requests", d.Handler.ListOrganizerRequests)

			// door scan
			r.Post("/checkin/verify", d.Handler.VerifyCheckIn)
		})
	})

	return r
}

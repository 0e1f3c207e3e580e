/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. zap logger: Structured request logging
  4. CORS:       Cross-origin requests for the planner frontend

SECURITY NOTE:
  No authentication middleware. Auth and role gating live in the
  gateway in front of this service.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/plans", func(r chi.Router) {
			r.Get("/", h.ListPlans)
			r.Post("/", h.CreatePlan)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPlan)
				r.Put("/", h.UpdatePlan)
				r.Delete("/", h.DeletePlan)

				// Reporting
				r.Get("/matrix", h.GetMatrix)
				r.Get("/totals", h.GetTotals)
				r.Get("/warnings", h.GetWarnings)

				// Block plan editing
				r.Post("/blockplans/ensure", h.EnsureBlockPlans)
				r.Post("/blockplans/toggle", h.ToggleWeek)
				r.Post("/week-start", h.ChangeWeekStart)

				// Allocator + history
				r.Post("/allocate", h.Allocate)
				r.Post("/undo", h.Undo)
				r.Post("/redo", h.Redo)

				// Flighting grid fields
				r.Get("/fields/{lineItemID}/{fieldID}", h.ReadField)
				r.Put("/fields/{lineItemID}/{fieldID}", h.WriteField)

				// Workflow
				r.Post("/submit", h.Submit)
				r.Post("/approve", h.Approve)
				r.Post("/reject", h.Reject)
				r.Post("/revert", h.Revert)
				r.Post("/archive", h.Archive)
				r.Post("/duplicate", h.Duplicate)
			})
		})

		// Demo scenarios
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})

		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}

// requestLogger logs method, path, status, and duration per request.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

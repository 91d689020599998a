/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:      Unique ID per request for tracing
  2. RequestLogger:  One structured zap line per request
  3. Recoverer:      Panic recovery (500 instead of crash)
  4. Instrument:     Prometheus request counters and latency
  5. CORS:           Cross-origin requests for the frontend

ROUTE GROUPS:
  /healthz              Liveness + database ping
  /metrics              Prometheus exposition
  /api/vehicles/*       Vehicles, fill-ups, expenses, analytics
  /api/inspection-alerts Alerts recorded by the scheduler
  /api/scenarios/*      Demo scenarios and reset (dev only)

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured. A nil metrics
// disables both instrumentation and the /metrics endpoint.
func NewRouter(h *Handler, metrics *Metrics, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(Instrument(metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Healthz)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/vehicles", func(r chi.Router) {
			r.Get("/", h.ListVehicles)
			r.Post("/", h.CreateVehicle)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetVehicle)
				r.Put("/", h.UpdateVehicle)
				r.Delete("/", h.DeleteVehicle)

				r.Get("/fillups", h.ListFillUps)
				r.Post("/fillups", h.CreateFillUp)
				r.Delete("/fillups/{fillUpId}", h.DeleteFillUp)

				r.Get("/expenses", h.ListExpenses)
				r.Post("/expenses", h.CreateExpense)
				r.Delete("/expenses/{expenseId}", h.DeleteExpense)

				r.Get("/summary", h.GetSummary)
				r.Get("/inspection", h.GetInspection)
			})
		})

		r.Get("/inspection-alerts", h.ListInspectionAlerts)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}

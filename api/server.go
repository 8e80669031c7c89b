/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. zerolog:    Structured request logging
  4. CORS:       Cross-origin requests for the back-office frontend

ROUTE GROUPS:
  /api/clients/*    Client onboarding, limits, credit state
  /api/sales/*      Credit sales and schedules
  /api/payments/*   Collection and voiding
  /api/reports/*    Back-office reports (JSON or CSV)
  /api/portal/*     Client self-service (token-gated)

SEE ALSO:
  - handlers.go: Handler implementations
  - portal.go: Portal auth middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, auth *PortalAuth) *chi.Mux {
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
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		// Client routes
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)
			r.Get("/{id}", h.GetClient)
			r.Put("/{id}/status", h.SetClientStatus)
			r.Put("/{id}/limit", h.SetCreditLimit)
			r.Get("/{id}/credit", h.GetCreditState)
			r.Get("/{id}/installments", h.GetClientInstallments)
			r.Get("/{id}/sales", h.GetClientSales)
		})

		// Sale routes
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Post("/", h.CreateSale)
			r.Get("/{id}", h.GetSale)
		})

		// Payment routes
		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.ListPayments)
			r.Post("/", h.CollectPayment)
			r.Get("/{id}", h.GetPayment)
			r.Post("/{id}/void", h.VoidPayment)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/overdue", h.OverdueReport)
			r.Get("/blocked", h.BlockedReport)
			r.Get("/merchant-debt", h.MerchantDebtReport)
		})

		// Portal routes (client self-service)
		r.Route("/portal", func(r chi.Router) {
			r.Post("/login", h.PortalLogin(auth))
			r.Group(func(r chi.Router) {
				r.Use(auth.Middleware)
				r.Get("/me", h.PortalMe)
			})
		})
	})

	return r
}

// requestLogger logs one line per request through the service logger.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}

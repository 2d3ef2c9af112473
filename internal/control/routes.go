package control

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"turbodriver/internal/auth"
	"turbodriver/internal/storage"
)

// AttachRoutes wires the control plane's HTTP surface onto r, mirroring
// the teacher's AttachRoutes: a metrics middleware, chi's request-id and
// logger middleware, an auth-gated mutation group, and an open
// health/metrics group. sweepQueues may be nil to disable /sweep entirely.
func AttachRoutes(r chi.Router, reg *Registry, hub *RunHub, authStore *auth.InMemoryStore, identityDB *storage.IdentityStore, defaultTTL time.Duration, store *storage.Postgres, idem *storage.IdempotencyStore, sweepQueues *redis.Client, snapshotRingCapacity int) *Handler {
	handler := NewHandler(reg, hub, authStore, identityDB, defaultTTL, store, idem, sweepQueues, snapshotRingCapacity)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	r.Use(handler.metricsMiddleware)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})
	r.Get("/metrics", handler.Metrics)

	r.Group(func(pr chi.Router) {
		pr.Use(handler.auth.middleware)
		pr.Post("/runs", handler.CreateRun)
		pr.Get("/runs/{runID}", handler.GetRun)
		pr.Get("/runs/{runID}/trips", handler.ListTrips)
		pr.Get("/runs/{runID}/trips.csv", handler.ExportTripsCSV)
		pr.Post("/auth/register", handler.RegisterIdentity)
		pr.Post("/sweep", handler.SweepCreate)
		pr.Get("/sweep/{queue}", handler.SweepResults)
	})

	r.Get("/ws/runs/{runID}", handler.RunWebsocket)

	return handler
}

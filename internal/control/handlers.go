package control

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"turbodriver/internal/auth"
	"turbodriver/internal/scenario"
	"turbodriver/internal/storage"
	"turbodriver/internal/sweep"
	"turbodriver/internal/telemetry"
)

// Handler holds one control plane's dependencies: the run registry, the
// websocket hub, auth, and optional Postgres persistence.
type Handler struct {
	Registry *Registry
	Hub      *RunHub
	auth     authConfig
	store    *storage.Postgres
	idem     *storage.IdempotencyStore

	sweepQueues *redis.Client

	snapshotRingCapacity int
	startTime            time.Time

	runStarts      int64
	runCompletions int64
	runFailures    int64
	reqCount       int64
	reqErrors      int64
	reqLatencyNS   int64
	runLatencyNS   int64
	runBuckets     bucketCounter
}

// NewHandler constructs a Handler. store, idem, and sweepQueues may be nil
// for an in-memory-only, single-run deployment.
func NewHandler(reg *Registry, hub *RunHub, authStore *auth.InMemoryStore, identityDB *storage.IdentityStore, defaultTTL time.Duration, store *storage.Postgres, idem *storage.IdempotencyStore, sweepQueues *redis.Client, snapshotRingCapacity int) *Handler {
	var db identityDB
	if identityDB != nil {
		db = identityDB
	}
	return &Handler{
		Registry:             reg,
		Hub:                  hub,
		auth:                 newAuthConfig(authStore, db, defaultTTL),
		store:                store,
		idem:                 idem,
		sweepQueues:          sweepQueues,
		snapshotRingCapacity: snapshotRingCapacity,
		startTime:            time.Now(),
		runBuckets:           newBucketCounter(map[float64]int64{1: 0, 5: 0, 30: 0, 60: 0, 300: 0}),
	}
}

func (h *Handler) sweepQueue(name string) *sweep.Queue {
	return sweep.NewQueue(h.sweepQueues, name)
}

type createRunRequest struct {
	Config         scenario.Config `json:"config"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
}

// CreateRun starts a new run from a posted scenario config and launches
// it to completion on a background goroutine (spec.md §4.14's
// run_until_empty, driven by the control plane rather than a caller loop).
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if req.IdempotencyKey != "" && h.idem != nil {
		if runID, ok, _ := h.idem.Lookup(r.Context(), req.IdempotencyKey); ok {
			respondJSON(w, http.StatusOK, map[string]string{"id": runID})
			return
		}
	}

	cfg := req.Config.ApplyDefaults()
	id := h.Registry.Create(cfg, h.snapshotRingCapacity)
	atomic.AddInt64(&h.runStarts, 1)

	if req.IdempotencyKey != "" && h.idem != nil {
		_ = h.idem.Remember(r.Context(), req.IdempotencyKey, id)
	}
	if h.store != nil {
		_ = h.store.CreateRun(r.Context(), id, cfg)
	}

	started := time.Now()
	go func() {
		runToCompletion(h.Registry, h.Hub, h.store, id)
		h.runBuckets.observe(time.Since(started))
		atomic.AddInt64(&h.runLatencyNS, time.Since(started).Nanoseconds())
		if view, err := h.Registry.View(id); err == nil {
			if view.Status == RunFailed {
				atomic.AddInt64(&h.runFailures, 1)
			} else {
				atomic.AddInt64(&h.runCompletions, 1)
			}
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")
	view, err := h.Registry.View(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) ListTrips(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")
	trips, err := h.Registry.Trips(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}
	limit := parseLimit(r.URL.Query().Get("limit"), 100)
	offset := parseOffset(r.URL.Query().Get("offset"))
	if offset > len(trips) {
		offset = len(trips)
	}
	end := offset + limit
	if end > len(trips) {
		end = len(trips)
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":   trips[offset:end],
		"limit":  limit,
		"offset": offset,
		"total":  len(trips),
	})
}

// ExportTripsCSV streams a run's completed-trip ledger as CSV (spec.md §6's
// trip record fields, a plain tabular dump rather than the out-of-scope
// Parquet writer).
func (h *Handler) ExportTripsCSV(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")
	trips, err := h.Registry.Trips(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`-trips.csv"`)
	if err := telemetry.WriteTripsCSV(w, trips); err != nil {
		log.Printf("control: csv export failed for run %s: %v", id, err)
	}
}

func (h *Handler) RunWebsocket(w http.ResponseWriter, r *http.Request) {
	if !h.auth.authorized(r) {
		respondError(w, http.StatusUnauthorized, "missing or invalid token")
		return
	}
	id := chi.URLParam(r, "runID")
	if _, err := h.Registry.View(id); err != nil {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}
	h.Hub.ServeRun(w, r, id)
}

func (h *Handler) RegisterIdentity(w http.ResponseWriter, r *http.Request) {
	if h.auth.store == nil {
		respondError(w, http.StatusServiceUnavailable, "auth not configured")
		return
	}
	var payload struct {
		TTL string `json:"ttl,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && err != io.EOF {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	ttl := h.auth.ttl
	if payload.TTL != "" {
		if parsed, err := time.ParseDuration(payload.TTL); err == nil {
			ttl = parsed
		}
	}
	identity := h.auth.store.Register(ttl)
	if h.auth.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		_ = h.auth.db.Save(ctx, identity)
	}
	respondJSON(w, http.StatusOK, identity)
}

// Metrics exposes a minimal Prometheus text endpoint (adapted from the
// teacher's ride-dispatch metrics handler).
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "turbosim_run_starts_total %d\n", atomic.LoadInt64(&h.runStarts))
	fmt.Fprintf(w, "turbosim_run_completions_total %d\n", atomic.LoadInt64(&h.runCompletions))
	fmt.Fprintf(w, "turbosim_run_failures_total %d\n", atomic.LoadInt64(&h.runFailures))
	fmt.Fprintf(w, "turbosim_run_duration_seconds_total %.6f\n", float64(atomic.LoadInt64(&h.runLatencyNS))/1e9)
	for le, count := range h.runBuckets.snapshot() {
		fmt.Fprintf(w, "turbosim_run_duration_seconds_bucket{le=\"%.0f\"} %d\n", le, count)
	}
	fmt.Fprintf(w, "turbosim_uptime_seconds %.0f\n", time.Since(h.startTime).Seconds())
	fmt.Fprintf(w, "turbosim_goroutines %d\n", runtime.NumGoroutine())
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Fprintf(w, "turbosim_mem_alloc_bytes %d\n", m.Alloc)
	fmt.Fprintf(w, "turbosim_requests_total %d\n", atomic.LoadInt64(&h.reqCount))
	fmt.Fprintf(w, "turbosim_request_errors_total %d\n", atomic.LoadInt64(&h.reqErrors))
	fmt.Fprintf(w, "turbosim_request_latency_seconds_total %.6f\n", float64(atomic.LoadInt64(&h.reqLatencyNS))/1e9)
}

func (h *Handler) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(rec, r)
		atomic.AddInt64(&h.reqCount, 1)
		if rec.status >= 400 {
			atomic.AddInt64(&h.reqErrors, 1)
		}
		atomic.AddInt64(&h.reqLatencyNS, time.Since(start).Nanoseconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func parseLimit(raw string, def int) int {
	if raw == "" {
		return def
	}
	if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 1000 {
		return v
	}
	return def
}

func parseOffset(raw string) int {
	if raw == "" {
		return 0
	}
	if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
		return v
	}
	return 0
}

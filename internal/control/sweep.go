package control

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"turbodriver/internal/scenario"
	"turbodriver/internal/sweep"
)

type sweepCreateRequest struct {
	Queue  string          `json:"queue"`
	Label  string          `json:"label"`
	Config scenario.Config `json:"config"`
	Seeds  []int64         `json:"seeds"`
}

// SweepCreate enqueues one job per seed onto the named Redis queue for
// cmd/sweep-worker processes to claim, the fan-out half of spec.md's
// cross-run parallelism collaborator.
func (h *Handler) SweepCreate(w http.ResponseWriter, r *http.Request) {
	if h.sweepQueues == nil {
		respondError(w, http.StatusServiceUnavailable, "sweep queue not configured")
		return
	}
	var req sweepCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Queue == "" || len(req.Seeds) == 0 {
		respondError(w, http.StatusBadRequest, "queue and seeds are required")
		return
	}
	cfg := req.Config.ApplyDefaults()
	jobs := sweep.BuildVariants(cfg, req.Label, req.Seeds)

	queue := h.sweepQueue(req.Queue)
	if err := queue.Enqueue(r.Context(), jobs); err != nil {
		respondError(w, http.StatusInternalServerError, "enqueue failed")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{"queue": req.Queue, "jobs": len(jobs)})
}

// SweepResults reports every job result recorded so far for a queue, plus
// how many jobs remain pending.
func (h *Handler) SweepResults(w http.ResponseWriter, r *http.Request) {
	if h.sweepQueues == nil {
		respondError(w, http.StatusServiceUnavailable, "sweep queue not configured")
		return
	}
	name := chi.URLParam(r, "queue")
	queue := h.sweepQueue(name)

	results, err := queue.Results(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "fetch results failed")
		return
	}
	pending, _ := queue.PendingCount(r.Context())
	respondJSON(w, http.StatusOK, map[string]any{
		"queue":   name,
		"pending": pending,
		"results": results,
	})
}

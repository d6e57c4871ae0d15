package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/contractwatch/internal/scan"
	"github.com/yourorg/contractwatch/internal/scheduler"
)

// JobsHandler exposes scheduler introspection and ad-hoc scan jobs.
type JobsHandler struct {
	scheduler *scheduler.Scheduler
	engine    *scan.Engine
	logger    *slog.Logger
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(sched *scheduler.Scheduler, engine *scan.Engine, logger *slog.Logger) *JobsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobsHandler{
		scheduler: sched,
		engine:    engine,
		logger:    logger,
	}
}

// List handles GET /api/jobs requests
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": h.scheduler.Jobs(),
	})
}

// Add handles POST /api/jobs requests. It registers an ad-hoc renewal scan
// on a fixed interval, replacing any job with the same id.
func (h *JobsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		IntervalMinutes int    `json:"interval_minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if req.IntervalMinutes <= 0 {
		writeError(w, http.StatusBadRequest, "interval_minutes must be positive")
		return
	}
	if req.Name == "" {
		req.Name = "renewal scan"
	}

	added := h.scheduler.AddJob(scheduler.Job{
		ID:      req.ID,
		Name:    req.Name,
		Trigger: scheduler.IntervalTrigger{Every: time.Duration(req.IntervalMinutes) * time.Minute},
		Run: func(ctx context.Context) {
			h.engine.Scan(ctx, time.Now())
		},
	})
	if !added {
		writeError(w, http.StatusBadRequest, "invalid job")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"jobs":    h.scheduler.Jobs(),
	})
}

// Remove handles DELETE /api/jobs/{id} requests
func (h *JobsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing job id")
		return
	}

	if !h.scheduler.RemoveJob(id) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

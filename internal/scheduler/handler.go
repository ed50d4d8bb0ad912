package scheduler

import (
	"encoding/json"
	"net/http"

	"github.com/expdynts/expwatch/internal/pkg/ctxlog"
	"github.com/expdynts/expwatch/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// Handler exposes the trigger controls over HTTP.
type Handler struct {
	scheduler *Scheduler
}

// NewHandler creates a scheduler handler.
func NewHandler(scheduler *Scheduler) *Handler {
	return &Handler{scheduler: scheduler}
}

// RegisterRoutes registers scheduler routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/scheduler/run", h.Run)
	r.Put("/scheduler/enabled", h.SetEnabled)
	r.Get("/scheduler/enabled", h.Enabled)
}

// Run handles POST /scheduler/run. Manual runs work even while the
// scheduled trigger is disabled.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.scheduler.Run(ctx)
	if err != nil {
		ctxlog.FromContext(ctx).Error("manual fetch pass failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

type enabledRequest struct {
	Enabled bool `json:"enabled"`
}

// SetEnabled handles PUT /scheduler/enabled.
func (h *Handler) SetEnabled(w http.ResponseWriter, r *http.Request) {
	var req enabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.scheduler.SetEnabled(req.Enabled)
	httputil.JSON(w, http.StatusOK, enabledRequest{Enabled: h.scheduler.Enabled()})
}

// Enabled handles GET /scheduler/enabled.
func (h *Handler) Enabled(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, enabledRequest{Enabled: h.scheduler.Enabled()})
}

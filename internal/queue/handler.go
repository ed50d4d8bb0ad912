package queue

import (
	"net/http"

	"github.com/expdynts/expwatch/internal/pkg/ctxlog"
	"github.com/expdynts/expwatch/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// Handler exposes queue status over HTTP.
type Handler struct {
	repo Repository
}

// NewHandler creates a queue status handler.
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes registers queue routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/queues/status", h.Status)
}

// Status handles GET /queues/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fetchStats, err := h.repo.Stats(ctx, QueueFetch)
	if err != nil {
		ctxlog.FromContext(ctx).Error("failed to read fetch queue stats", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	notifyStats, err := h.repo.Stats(ctx, QueueNotify)
	if err != nil {
		ctxlog.FromContext(ctx).Error("failed to read notify queue stats", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]*Stats{
		"fetch":  fetchStats,
		"notify": notifyStats,
	})
}

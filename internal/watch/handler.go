package watch

import (
	"encoding/json"
	"net/http"

	"github.com/expdynts/expwatch/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrSubscriptionNotFound, Status: http.StatusNotFound, Message: "subscription not found"},
	{Error: ErrCaseNotFound, Status: http.StatusNotFound, Message: "case not found"},
	{Error: ErrSubscriptionExists, Status: http.StatusConflict, Message: "subscription already exists for this user and case"},
	{Error: ErrNoSnapshot, Status: http.StatusNotFound, Message: "no snapshot recorded yet"},
}

// Handler handles HTTP requests for the subscription surface.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a subscription handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers subscription routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/subscriptions", func(r chi.Router) {
		r.Post("/", h.Subscribe)
		r.Delete("/{id}", h.Archive)
		r.Get("/{id}/snapshot", h.LatestSnapshot)
	})
	r.Get("/users/{id}/subscriptions", h.ListUserSubscriptions)
}

// SubscribeRequest represents the request body for opting in.
type SubscribeRequest struct {
	UserID string `json:"user_id" validate:"required"`
	CaseID string `json:"case_id" validate:"required"`
}

// Subscribe handles POST /subscriptions.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	sub, err := h.service.Subscribe(r.Context(), req.UserID, req.CaseID)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, sub)
}

// Archive handles DELETE /subscriptions/{id}. The subscription is
// soft-archived, never physically deleted.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Archive(r.Context(), id); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LatestSnapshot handles GET /subscriptions/{id}/snapshot.
func (h *Handler) LatestSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := h.service.History(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, entry)
}

// ListUserSubscriptions handles GET /users/{id}/subscriptions.
func (h *Handler) ListUserSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	subs, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, subs)
}

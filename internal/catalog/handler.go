// Package catalog provides read-only lookups over the court and
// extract reference data.
package catalog

import (
	"net/http"

	"github.com/expdynts/expwatch/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrCourtNotFound, Status: http.StatusNotFound, Message: "court not found"},
	{Error: ErrExtractNotFound, Status: http.StatusNotFound, Message: "extract not found"},
}

// Handler handles HTTP requests for the catalog module.
type Handler struct {
	service *Service
}

// NewHandler creates a new catalog handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers all catalog routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/courts", func(r chi.Router) {
		r.Get("/", h.ListCourts)
		r.Get("/{id}", h.GetCourt)
	})
	r.Route("/extracts", func(r chi.Router) {
		r.Get("/", h.ListExtracts)
		r.Get("/{code}", h.GetExtract)
	})
}

// ListCourts handles GET /courts.
func (h *Handler) ListCourts(w http.ResponseWriter, r *http.Request) {
	courts, err := h.service.ListCourts(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.JSON(w, http.StatusOK, courts)
}

// GetCourt handles GET /courts/{id}.
func (h *Handler) GetCourt(w http.ResponseWriter, r *http.Request) {
	court, err := h.service.CourtMeta(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.JSON(w, http.StatusOK, court)
}

// GetExtract handles GET /extracts/{code}.
func (h *Handler) GetExtract(w http.ResponseWriter, r *http.Request) {
	extract, err := h.service.GetExtract(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.JSON(w, http.StatusOK, extract)
}

// ListExtracts handles GET /extracts.
func (h *Handler) ListExtracts(w http.ResponseWriter, r *http.Request) {
	extracts, err := h.service.ListExtracts(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.JSON(w, http.StatusOK, extracts)
}

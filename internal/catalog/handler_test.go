package catalog

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/expdynts/expwatch/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo Repository) *chi.Mux {
	r := chi.NewRouter()
	NewHandler(NewService(repo)).RegisterRoutes(r)
	return r
}

func TestHandler_GetCourt(t *testing.T) {
	router := newTestRouter(&fakeRepo{courts: map[string]*domain.Court{
		"LABORAL-L04": {ID: "LABORAL-L04", Code: "L04", Name: "JUZGADO SEGUNDO LABORAL"},
	}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courts/LABORAL-L04", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"L04"`)
}

func TestHandler_GetCourtNotFound(t *testing.T) {
	router := newTestRouter(&fakeRepo{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courts/missing", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "court not found")
}

func TestHandler_GetExtract(t *testing.T) {
	router := newTestRouter(&fakeRepo{extracts: map[string]*domain.Extract{
		"LAB": {Code: "LAB", Name: "Boletín Laboral", KeySearch: "laboral"},
	}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/extracts/LAB", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"key_search":"laboral"`)
}

func TestHandler_GetExtractNotFound(t *testing.T) {
	router := newTestRouter(&fakeRepo{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/extracts/missing", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "extract not found")
}

// categories.go — обработчики /api/v1/categories endpoints.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/funkoworld/internal/api/errors"
	"github.com/bigkaa/funkoworld/internal/dto"
)

// ListCategories — GET /api/v1/categories.
func (h *APIHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.categories.GetAll(r.Context())
	if err != nil {
		apierrors.FromService(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetCategory — GET /api/v1/categories/{id}.
func (h *APIHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	resp, err := h.categories.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.FromService(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateCategory — POST /api/v1/categories.
func (h *APIHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req dto.CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.categories.Create(r.Context(), req)
	if err != nil {
		apierrors.FromService(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// UpdateCategory — PUT /api/v1/categories/{id}.
func (h *APIHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req dto.CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.categories.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		apierrors.FromService(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteCategory — DELETE /api/v1/categories/{id}.
func (h *APIHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	resp, err := h.categories.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.FromService(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

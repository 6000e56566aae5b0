// catalog.go — выгрузка каталога целиком из согласованного снимка.
package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/funkoworld/internal/api/errors"
	"github.com/bigkaa/funkoworld/internal/dto"
)

// GetCatalogSnapshot — GET /api/v1/catalog/snapshot. Кэш не используется.
func (h *APIHandler) GetCatalogSnapshot(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.Snapshot(r.Context())
	if err != nil {
		apierrors.FromService(w, h.logger, err)
		return
	}
	funkos, err := h.funkos.Snapshot(r.Context())
	if err != nil {
		apierrors.FromService(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CatalogSnapshot{Categories: categories, Funkos: funkos})
}

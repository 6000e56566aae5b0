// funkos.go — обработчики /api/v1/funkos endpoints.
// Чтение публичное, изменение требует роли Admin (см. server).
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/funkoworld/internal/api/errors"
	"github.com/bigkaa/funkoworld/internal/dto"
	"github.com/bigkaa/funkoworld/internal/storage"
)

const (
	// maxUploadMemory — объём multipart-формы, хранимый в памяти; остальное уходит во временные файлы.
	maxUploadMemory = 8 << 20
	// multipartOverhead — запас сверх размера файла на заголовки частей и поля формы.
	multipartOverhead = 1 << 20
)

// ListFunkos — GET /api/v1/funkos.
// Параметры фильтра: nombre, categoria, maxPrecio, page, size, sortBy, direction.
func (h *APIHandler) ListFunkos(w http.ResponseWriter, r *http.Request) {
	filter, err := bindFilter(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	page, err := h.funkos.GetAll(r.Context(), filter.Normalize())
	if err != nil {
		apierrors.FromService(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// bindFilter разбирает query-параметры списка через oapi-codegen runtime.
func bindFilter(r *http.Request) (dto.Filter, error) {
	filter := dto.NewFilter()
	query := r.URL.Query()

	var page, size *int
	var sortBy, direction *string
	params := []struct {
		name string
		dest any
	}{
		{"nombre", &filter.Nombre},
		{"categoria", &filter.Categoria},
		{"maxPrecio", &filter.MaxPrecio},
		{"page", &page},
		{"size", &size},
		{"sortBy", &sortBy},
		{"direction", &direction},
	}
	for _, p := range params {
		if err := runtime.BindQueryParameter("form", true, false, p.name, query, p.dest); err != nil {
			return filter, err
		}
	}

	if page != nil {
		filter.Page = *page
	}
	if size != nil {
		filter.Size = *size
	}
	if sortBy != nil {
		filter.SortBy = *sortBy
	}
	if direction != nil {
		filter.Direction = *direction
	}
	return filter, nil
}

// GetFunko — GET /api/v1/funkos/{id}.
func (h *APIHandler) GetFunko(w http.ResponseWriter, r *http.Request) {
	id, ok := funkoID(w, r)
	if !ok {
		return
	}
	resp, err := h.funkos.GetByID(r.Context(), id)
	if err != nil {
		apierrors.FromService(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateFunko — POST /api/v1/funkos.
func (h *APIHandler) CreateFunko(w http.ResponseWriter, r *http.Request) {
	var req dto.FunkoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.funkos.Create(r.Context(), req)
	if err != nil {
		apierrors.FromService(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// UpdateFunko — PUT /api/v1/funkos/{id}.
func (h *APIHandler) UpdateFunko(w http.ResponseWriter, r *http.Request) {
	id, ok := funkoID(w, r)
	if !ok {
		return
	}
	var req dto.FunkoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.funkos.Update(r.Context(), id, req)
	if err != nil {
		apierrors.FromService(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// PatchFunko — PATCH /api/v1/funkos/{id}.
func (h *APIHandler) PatchFunko(w http.ResponseWriter, r *http.Request) {
	id, ok := funkoID(w, r)
	if !ok {
		return
	}
	var req dto.FunkoPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.funkos.Patch(r.Context(), id, req)
	if err != nil {
		apierrors.FromService(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteFunko — DELETE /api/v1/funkos/{id}. Возвращает удалённый Funko.
func (h *APIHandler) DeleteFunko(w http.ResponseWriter, r *http.Request) {
	id, ok := funkoID(w, r)
	if !ok {
		return
	}
	resp, err := h.funkos.Delete(r.Context(), id)
	if err != nil {
		apierrors.FromService(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// UploadFunkoImage — POST /api/v1/funkos/{id}/image (multipart, поле file).
func (h *APIHandler) UploadFunkoImage(w http.ResponseWriter, r *http.Request) {
	id, ok := funkoID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.TooLarge(w, fmt.Sprintf("Archivo demasiado grande. Tamaño máximo: %d bytes", h.maxUpload))
			return
		}
		apierrors.BadRequest(w, "Formulario multipart no válido")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			apierrors.StorageError(w, "Archivo vacío")
			return
		}
		apierrors.BadRequest(w, "No se pudo leer el archivo")
		return
	}
	defer file.Close()

	resp, err := h.funkos.UpdateImage(r.Context(), id, &storage.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		apierrors.FromService(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

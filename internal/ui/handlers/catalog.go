// catalog.go — страницы каталога: список, карточка, создание,
// редактирование и удаление Funko.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/funkoworld/internal/dto"
	"github.com/bigkaa/funkoworld/internal/service"
	"github.com/bigkaa/funkoworld/internal/storage"
	"github.com/bigkaa/funkoworld/internal/ui/auth"
	uimiddleware "github.com/bigkaa/funkoworld/internal/ui/middleware"
	"github.com/bigkaa/funkoworld/internal/ui/pages"
)

// maxFormMemory — объём multipart-формы в памяти.
const maxFormMemory = 8 << 20

// CatalogHandler — обработчики страниц каталога.
type CatalogHandler struct {
	renderer
	funkos     FunkoCatalog
	categories CategoryLister
}

// NewCatalogHandler создаёт CatalogHandler.
func NewCatalogHandler(funkos FunkoCatalog, categories CategoryLister, sessions *auth.SessionManager, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		renderer:   renderer{sessions: sessions, logger: logger.With(slog.String("component", "ui.catalog"))},
		funkos:     funkos,
		categories: categories,
	}
}

// HandleIndex — GET /funkos: поиск по названию, страница по 10 элементов.
func (h *CatalogHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	session := uimiddleware.SessionFromContext(r.Context())

	filter := dto.NewFilter()
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	if search != "" {
		filter.Nombre = &search
	}
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		filter.Page = p
	}

	page, err := h.funkos.GetAll(r.Context(), filter.Normalize())
	if err != nil {
		h.logger.Error("Ошибка получения каталога", slog.String("error", err.Error()))
		h.renderError(w, r, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	data := pages.IndexData{
		Nav:    pages.NavFromSession(session),
		Search: search,
		Page:   page,
	}
	if session != nil {
		data.Recent = session.Recent
		if data.Flash = session.PopFlash(); data.Flash != nil {
			h.save(w, session)
		}
	}
	h.render(w, r, http.StatusOK, pages.Index(data))
}

// HandleDetails — GET /funkos/{id}. Funko добавляется в недавно просмотренные.
func (h *CatalogHandler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := h.funkoID(w, r)
	if !ok {
		return
	}

	f, err := h.funkos.GetByID(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	session := uimiddleware.SessionFromContext(r.Context())
	data := pages.DetailsData{Nav: pages.NavFromSession(session), Funko: *f}
	if session != nil {
		session.AddRecent(f.ID, f.Nombre)
		data.Flash = session.PopFlash()
		h.save(w, session)
	}
	h.render(w, r, http.StatusOK, pages.Details(data))
}

// HandleCreateForm — GET /funkos/create.
func (h *CatalogHandler) HandleCreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, h.createForm(r))
}

// HandleCreate — POST /funkos/create.
func (h *CatalogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	form := h.createForm(r)
	req, upload, ok := h.parseForm(w, r, &form)
	if !ok {
		return
	}
	defer closeUpload(upload)

	created, err := h.funkos.CreateWithImage(r.Context(), req, upload)
	if err != nil {
		h.formError(w, r, form, err)
		return
	}

	h.logger.Info("Funko создан через UI", slog.Int64("id", created.ID), slog.String("nombre", created.Nombre))
	h.redirectWithFlash(w, r, "/funkos", fmt.Sprintf("Funko %s creado correctamente.", created.Nombre))
}

// HandleUpdateForm — GET /funkos/{id}/update.
func (h *CatalogHandler) HandleUpdateForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.funkoID(w, r)
	if !ok {
		return
	}
	f, err := h.funkos.GetByID(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	form := h.updateForm(r, id)
	form.Nombre = f.Nombre
	form.Categoria = f.Categoria
	form.Precio = strconv.FormatFloat(f.Precio, 'f', 2, 64)
	form.Imagen = f.Imagen
	h.renderForm(w, r, http.StatusOK, form)
}

// HandleUpdate — POST /funkos/{id}/update. Без нового файла изображение сохраняется.
func (h *CatalogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.funkoID(w, r)
	if !ok {
		return
	}

	form := h.updateForm(r, id)
	req, upload, ok := h.parseForm(w, r, &form)
	if !ok {
		return
	}
	defer closeUpload(upload)

	updated, err := h.funkos.UpdateWithImage(r.Context(), id, req, upload)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.serviceError(w, r, err)
			return
		}
		h.formError(w, r, form, err)
		return
	}

	h.logger.Info("Funko обновлён через UI", slog.Int64("id", updated.ID))
	h.redirectWithFlash(w, r, fmt.Sprintf("/funkos/%d", updated.ID),
		fmt.Sprintf("Funko %s actualizado correctamente.", updated.Nombre))
}

// HandleDelete — POST /funkos/{id}/delete.
func (h *CatalogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.funkoID(w, r)
	if !ok {
		return
	}

	deleted, err := h.funkos.Delete(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.logger.Info("Funko удалён через UI", slog.Int64("id", deleted.ID))
	h.redirectWithFlash(w, r, "/funkos", fmt.Sprintf("Funko %s eliminado correctamente.", deleted.Nombre))
}

// --- Вспомогательные методы ---

func (h *CatalogHandler) createForm(r *http.Request) pages.FormData {
	return h.baseForm(r, "Nuevo Funko", "/funkos/create")
}

func (h *CatalogHandler) updateForm(r *http.Request, id int64) pages.FormData {
	return h.baseForm(r, "Editar Funko", fmt.Sprintf("/funkos/%d/update", id))
}

func (h *CatalogHandler) baseForm(r *http.Request, title, action string) pages.FormData {
	return pages.FormData{
		Nav:    pages.NavFromSession(uimiddleware.SessionFromContext(r.Context())),
		Title:  title,
		Action: action,
	}
}

// renderForm подгружает категории и отрисовывает форму.
func (h *CatalogHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, form pages.FormData) {
	categories, err := h.categories.GetAll(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения категорий", slog.String("error", err.Error()))
		h.renderError(w, r, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	form.Categories = categories
	h.render(w, r, status, pages.FunkoForm(form))
}

// parseForm переносит поля формы в FormData и собирает запрос.
// Нечисловая цена сразу возвращает форму с ошибкой поля.
func (h *CatalogHandler) parseForm(w http.ResponseWriter, r *http.Request, form *pages.FormData) (dto.FunkoRequest, *storage.Upload, bool) {
	// Размер тела уже ограничен UISession
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.renderError(w, r, http.StatusBadRequest, "Formulario no válido")
		return dto.FunkoRequest{}, nil, false
	}

	form.Nombre = strings.TrimSpace(r.FormValue("nombre"))
	form.Categoria = strings.TrimSpace(r.FormValue("categoria"))
	form.Precio = strings.TrimSpace(r.FormValue("precio"))
	form.Imagen = strings.TrimSpace(r.FormValue("imagen"))

	req := dto.FunkoRequest{Nombre: form.Nombre, Categoria: form.Categoria}
	if form.Imagen != "" {
		req.Imagen = &form.Imagen
	}
	precio, err := strconv.ParseFloat(strings.ReplaceAll(form.Precio, ",", "."), 64)
	if err != nil {
		form.Errors = map[string]string{"precio": "El precio debe estar entre 0.01 y 9999.99"}
		h.renderForm(w, r, http.StatusBadRequest, *form)
		return dto.FunkoRequest{}, nil, false
	}
	req.Precio = precio

	file, header, err := r.FormFile("file")
	if err != nil {
		// Файл не выбран: изображение не меняется
		return req, nil, true
	}
	upload := &storage.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	}
	return req, upload, true
}

// closeUpload закрывает загруженный файл, если он был.
func closeUpload(u *storage.Upload) {
	if u == nil {
		return
	}
	if c, ok := u.Content.(io.Closer); ok {
		_ = c.Close()
	}
}

// formError возвращает форму с ошибками полей или общим сообщением.
func (h *CatalogHandler) formError(w http.ResponseWriter, r *http.Request, form pages.FormData, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		h.logger.Error("Ошибка сохранения Funko", slog.String("error", err.Error()))
		h.renderError(w, r, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	status := http.StatusBadRequest
	switch se.Kind {
	case service.KindValidation:
		form.Errors = se.Fields
	case service.KindConflict:
		status = http.StatusConflict
		form.Message = se.Message
	default:
		form.Message = se.Message
	}
	h.renderForm(w, r, status, form)
}

// serviceError отрисовывает страницу ошибки по виду ошибки сервиса.
func (h *CatalogHandler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	var se *service.Error
	if errors.As(err, &se) {
		switch se.Kind {
		case service.KindNotFound:
			h.renderError(w, r, http.StatusNotFound, se.Message)
			return
		case service.KindConflict:
			h.renderError(w, r, http.StatusConflict, se.Message)
			return
		case service.KindValidation, service.KindBadRequest, service.KindStorage:
			h.renderError(w, r, http.StatusBadRequest, se.Message)
			return
		}
	}
	h.logger.Error("Ошибка сервиса каталога", slog.String("error", err.Error()))
	h.renderError(w, r, http.StatusInternalServerError, "Error interno del servidor")
}

// redirectWithFlash сохраняет flash-сообщение и делает redirect (POST-redirect-GET).
func (h *CatalogHandler) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, message string) {
	if session := uimiddleware.SessionFromContext(r.Context()); session != nil {
		session.SetFlash(auth.FlashSuccess, message)
		h.save(w, session)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *CatalogHandler) funkoID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.renderError(w, r, http.StatusNotFound, "No se encontró el Funko con id: "+raw+".")
		return 0, false
	}
	return id, true
}

// handler.go — основной обработчик REST API. Объединяет доменные
// обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/funkoworld/internal/api/errors"
	"github.com/bigkaa/funkoworld/internal/domain/model"
	"github.com/bigkaa/funkoworld/internal/dto"
	"github.com/bigkaa/funkoworld/internal/service"
	"github.com/bigkaa/funkoworld/internal/storage"
)

// FunkoService — операции каталога Funko, используемые обработчиками.
type FunkoService interface {
	GetByID(ctx context.Context, id int64) (*dto.FunkoResponse, error)
	GetAll(ctx context.Context, filter dto.Filter) (dto.Page[dto.FunkoResponse], error)
	Create(ctx context.Context, req dto.FunkoRequest) (*dto.FunkoResponse, error)
	Update(ctx context.Context, id int64, req dto.FunkoRequest) (*dto.FunkoResponse, error)
	Patch(ctx context.Context, id int64, req dto.FunkoPatchRequest) (*dto.FunkoResponse, error)
	Delete(ctx context.Context, id int64) (*dto.FunkoResponse, error)
	UpdateImage(ctx context.Context, id int64, u *storage.Upload) (*dto.FunkoResponse, error)
	Snapshot(ctx context.Context) ([]dto.FunkoResponse, error)
}

// CategoryService — операции с категориями, используемые обработчиками.
type CategoryService interface {
	GetByID(ctx context.Context, id string) (*dto.CategoryResponse, error)
	GetAll(ctx context.Context) ([]dto.CategoryResponse, error)
	Create(ctx context.Context, req dto.CategoryRequest) (*dto.CategoryResponse, error)
	Update(ctx context.Context, id string, req dto.CategoryRequest) (*dto.CategoryResponse, error)
	Delete(ctx context.Context, id string) (*dto.CategoryResponse, error)
	Snapshot(ctx context.Context) ([]dto.CategoryResponse, error)
}

// AuthService — аутентификация и выпуск токенов.
type AuthService interface {
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	IssueToken(u *model.User) (*service.Token, error)
	JWKS(ctx context.Context) (json.RawMessage, error)
}

var (
	_ FunkoService    = (*service.FunkoService)(nil)
	_ CategoryService = (*service.CategoryService)(nil)
	_ AuthService     = (*service.AuthService)(nil)
)

// APIHandler — обработчик REST API каталога.
type APIHandler struct {
	funkos     FunkoService
	categories CategoryService
	auth       AuthService
	maxUpload  int64
	logger     *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
// maxUpload — максимальный размер загружаемого файла в байтах.
func NewAPIHandler(funkos FunkoService, categories CategoryService, auth AuthService, maxUpload int64, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		funkos:     funkos,
		categories: categories,
		auth:       auth,
		maxUpload:  maxUpload,
		logger:     logger.With(slog.String("component", "api_handler")),
	}
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON разбирает тело запроса. При ошибке пишет 400 и возвращает false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.ValidationError(w, "JSON no válido: "+err.Error())
		return false
	}
	return true
}

// funkoID извлекает числовой id Funko из пути. При ошибке пишет 400.
func funkoID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		apierrors.BadRequest(w, "Id de Funko no válido: "+raw)
		return 0, false
	}
	return id, true
}

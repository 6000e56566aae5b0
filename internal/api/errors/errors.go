// Пакет errors — конструкторы стандартных ошибок REST API FunkoWorld.
// Единый формат: {"error": {"code": "...", "message": "..."}}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bigkaa/funkoworld/internal/service"
)

// Коды ошибок, определённые в OpenAPI контракте.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeBadRequest      = "BAD_REQUEST"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeConflict        = "CONFLICT"
	CodeStorageError    = "STORAGE_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки. Fields заполняется для ошибок валидации.
type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	writeBody(w, statusCode, errorDetail{Code: code, Message: message})
}

func writeBody(w http.ResponseWriter, statusCode int, detail errorDetail) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{Error: detail})
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// BadRequest — 400 запрос не может быть обработан.
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeBadRequest, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden — 403 недостаточно прав.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}

// Conflict — 409 конфликт (дублирующееся имя, неизвестная категория).
func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeConflict, message)
}

// StorageError — 400 файл отклонён или не записан.
func StorageError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeStorageError, message)
}

// TooLarge — 413 тело запроса превышает допустимый размер.
func TooLarge(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusRequestEntityTooLarge, CodeStorageError, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}

// FromService записывает ответ для ошибки сервисного слоя.
// Непредвиденные ошибки логируются и отдаются как 500 без подробностей.
func FromService(w http.ResponseWriter, logger *slog.Logger, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		logger.Error("Внутренняя ошибка", slog.String("error", err.Error()))
		InternalError(w, "Error interno del servidor")
		return
	}

	switch se.Kind {
	case service.KindNotFound:
		NotFound(w, se.Message)
	case service.KindConflict:
		Conflict(w, se.Message)
	case service.KindValidation:
		writeBody(w, http.StatusBadRequest, errorDetail{
			Code:    CodeValidationError,
			Message: se.Message,
			Fields:  se.Fields,
		})
	case service.KindBadRequest:
		BadRequest(w, se.Message)
	case service.KindStorage:
		StorageError(w, se.Message)
	default:
		logger.Error("Неизвестный вид ошибки", slog.String("kind", string(se.Kind)))
		InternalError(w, "Error interno del servidor")
	}
}

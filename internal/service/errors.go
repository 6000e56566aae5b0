// errors.go — типизированные ошибки бизнес-логики сервисного слоя.
// Каждая ошибка несёт вид (Kind) и сообщение для пользователя.
// Непредвиденные ошибки хранилища оборачиваются через %w и не являются *Error.
package service

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/bigkaa/funkoworld/internal/storage"
)

// Kind — вид ошибки сервиса.
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
	KindBadRequest Kind = "bad_request"
	KindConflict   Kind = "conflict"
	KindStorage    Kind = "storage"
)

// Error — ошибка сервиса: вид + сообщение. Для KindValidation
// Fields содержит ошибки по полям.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is сопоставляет ошибки по виду: errors.Is(err, ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = &Error{Kind: KindNotFound}
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = &Error{Kind: KindValidation}
	// ErrBadRequest — некорректный запрос.
	ErrBadRequest = &Error{Kind: KindBadRequest}
	// ErrConflict — дубликат или ссылка на несуществующую категорию.
	ErrConflict = &Error{Kind: KindConflict}
	// ErrStorage — ошибка проверки или записи файла.
	ErrStorage = &Error{Kind: KindStorage}
)

func notFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// BadRequest создаёт ошибку некорректного запроса.
func BadRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// ValidationFailed переводит ошибки ozzo-validation в ошибку вида KindValidation.
// Прочие ошибки возвращаются как есть.
func ValidationFailed(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		fields[field] = ferr.Error()
	}
	msgs := make([]string, 0, len(fields))
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		msgs = append(msgs, fields[k])
	}
	return &Error{Kind: KindValidation, Message: strings.Join(msgs, "; "), Fields: fields}
}

// storageFailure переводит ошибку хранилища файлов в KindStorage.
func storageFailure(err error) error {
	var se *storage.Error
	if errors.As(err, &se) {
		return &Error{Kind: KindStorage, Message: se.Message}
	}
	return &Error{Kind: KindStorage, Message: "Error guardando archivo"}
}

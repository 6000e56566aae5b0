// openapi.go — проверка входящих запросов REST API по OpenAPI-контракту.
// Операция определяется по шаблону маршрута chi, поэтому middleware
// подключается внутри группы маршрутов (после сопоставления пути).
package middleware

import (
	"log/slog"
	"mime"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/funkoworld/internal/api/errors"
)

// OpenAPIValidator — middleware проверки запросов по контракту.
type OpenAPIValidator struct {
	doc    *openapi3.T
	logger *slog.Logger
}

// NewOpenAPIValidator создаёт middleware для загруженного контракта.
func NewOpenAPIValidator(doc *openapi3.T, logger *slog.Logger) *OpenAPIValidator {
	return &OpenAPIValidator{
		doc:    doc,
		logger: logger.With(slog.String("component", "openapi_validator")),
	}
}

// Middleware проверяет параметры и тело запроса. Маршруты, которых нет
// в контракте, пропускаются без проверки. Проверка безопасности выполняется
// JWT middleware, поэтому здесь отключена.
func (v *OpenAPIValidator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		if rctx == nil {
			next.ServeHTTP(w, r)
			return
		}
		pattern := rctx.RoutePattern()

		item := v.doc.Paths.Value(pattern)
		if item == nil {
			next.ServeHTTP(w, r)
			return
		}
		op := item.GetOperation(r.Method)
		if op == nil {
			next.ServeHTTP(w, r)
			return
		}

		pathParams := make(map[string]string, len(rctx.URLParams.Keys))
		for i, key := range rctx.URLParams.Keys {
			pathParams[key] = rctx.URLParams.Values[i]
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route: &routers.Route{
				Spec:      v.doc,
				Path:      pattern,
				PathItem:  item,
				Method:    r.Method,
				Operation: op,
			},
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				// Загрузка файла читается обработчиком потоково
				ExcludeRequestBody: isMultipart(r),
			},
		}

		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			v.logger.Debug("Запрос не соответствует контракту",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
			apierrors.ValidationError(w, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

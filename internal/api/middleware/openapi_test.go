package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/funkoworld/internal/api/openapi"
)

// TestOpenAPIValidator проверяет отклонение запросов, нарушающих контракт.
func TestOpenAPIValidator(t *testing.T) {
	doc, err := openapi.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() ошибка: %v", err)
	}
	v := NewOpenAPIValidator(doc, testLogger())

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	router := chi.NewRouter()
	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(v.Middleware)
			r.Get("/funkos", ok)
			r.Get("/funkos/{id}", ok)
			r.Post("/funkos", ok)
		})
		r.Get("/unlisted", ok)
	})

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{name: "корректный список", method: http.MethodGet, target: "/api/v1/funkos?page=2&maxPrecio=20.5", wantStatus: http.StatusOK},
		{name: "page не число", method: http.MethodGet, target: "/api/v1/funkos?page=abc", wantStatus: http.StatusBadRequest},
		{name: "id не число", method: http.MethodGet, target: "/api/v1/funkos/abc", wantStatus: http.StatusBadRequest},
		{name: "корректное тело", method: http.MethodPost, target: "/api/v1/funkos", body: `{"nombre":"Thor","categoria":"MARVEL","precio":10}`, wantStatus: http.StatusOK},
		{name: "precio строкой", method: http.MethodPost, target: "/api/v1/funkos", body: `{"nombre":"Thor","categoria":"MARVEL","precio":"diez"}`, wantStatus: http.StatusBadRequest},
		{name: "маршрут вне контракта", method: http.MethodGet, target: "/api/v1/unlisted", wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("статус = %d, ожидался %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

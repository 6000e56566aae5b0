package openapi

import (
	"context"
	"net/http"
	"testing"
)

// TestLoad проверяет, что встроенный контракт корректен.
func TestLoad(t *testing.T) {
	doc, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() ошибка: %v", err)
	}

	ops := []struct {
		path   string
		method string
	}{
		{"/api/v1/funkos", http.MethodGet},
		{"/api/v1/funkos", http.MethodPost},
		{"/api/v1/funkos/{id}", http.MethodPatch},
		{"/api/v1/funkos/{id}/image", http.MethodPost},
		{"/api/v1/categories/{id}", http.MethodDelete},
		{"/api/v1/catalog/snapshot", http.MethodGet},
		{"/api/v1/auth/token", http.MethodPost},
	}
	for _, op := range ops {
		item := doc.Paths.Value(op.path)
		if item == nil {
			t.Errorf("путь %s отсутствует", op.path)
			continue
		}
		if item.GetOperation(op.method) == nil {
			t.Errorf("операция %s %s отсутствует", op.method, op.path)
		}
	}
}

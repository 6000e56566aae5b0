package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/funkoworld/internal/domain/rbac"
	"github.com/bigkaa/funkoworld/internal/service"
)

// testKeyID — идентификатор ключа для тестов.
const testKeyID = "test-key-fw"

// generateTestKey генерирует RSA ключ для тестов.
func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

// buildJWKSetJSON строит JWKS JSON из RSA публичного ключа.
func buildJWKSetJSON(pub *rsa.PublicKey, kid string) json.RawMessage {
	jwks := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": kid,
				"use": "sig",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			},
		},
	}
	data, _ := json.Marshal(jwks)
	return data
}

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// signToken подписывает claims тестовым ключом.
func signToken(t *testing.T, key *rsa.PrivateKey, claims service.TokenClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func newTestAuth(t *testing.T, key *rsa.PrivateKey) *JWTAuth {
	t.Helper()
	kf, err := keyfunc.NewJWKSetJSON(buildJWKSetJSON(&key.PublicKey, testKeyID))
	if err != nil {
		t.Fatalf("keyfunc: %v", err)
	}
	return NewJWTAuth(kf, "funkoworld", 0, testLogger())
}

func claimsFor(role string, exp time.Time) service.TokenClaims {
	return service.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "funkoworld",
			Subject:   "admin@admin.com",
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email: "admin@admin.com",
		Role:  role,
	}
}

// TestJWTAuth_Middleware проверяет разбор и проверку Bearer-токена.
func TestJWTAuth_Middleware(t *testing.T) {
	key := generateTestKey(t)
	foreign := generateTestKey(t)
	auth := newTestAuth(t, key)

	valid := signToken(t, key, claimsFor(rbac.RoleAdmin, time.Now().Add(time.Hour)))
	expired := signToken(t, key, claimsFor(rbac.RoleAdmin, time.Now().Add(-time.Hour)))
	wrongKey := signToken(t, foreign, claimsFor(rbac.RoleAdmin, time.Now().Add(time.Hour)))
	otherIssuer := claimsFor(rbac.RoleAdmin, time.Now().Add(time.Hour))
	otherIssuer.Issuer = "someone-else"

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "валидный токен", header: "Bearer " + valid, wantStatus: http.StatusOK},
		{name: "bearer в нижнем регистре", header: "bearer " + valid, wantStatus: http.StatusOK},
		{name: "без заголовка", header: "", wantStatus: http.StatusUnauthorized},
		{name: "не Bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "пустой токен", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "просроченный", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
		{name: "чужой ключ", header: "Bearer " + wrongKey, wantStatus: http.StatusUnauthorized},
		{name: "чужой issuer", header: "Bearer " + signToken(t, key, otherIssuer), wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *AuthClaims
			h := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = ClaimsFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/funkos", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("статус = %d, ожидался %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if got == nil || got.Role != rbac.RoleAdmin || got.Subject != "admin@admin.com" {
					t.Errorf("claims = %+v", got)
				}
			}
		})
	}
}

// TestRequireRole проверяет ограничение по роли.
func TestRequireRole(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestAuth(t, key)

	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{name: "Admin допущен", role: rbac.RoleAdmin, wantStatus: http.StatusNoContent},
		{name: "User запрещён", role: rbac.RoleUser, wantStatus: http.StatusForbidden},
		{name: "неизвестная роль", role: "Root", wantStatus: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := auth.Middleware()(RequireRole(rbac.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})))

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/funkos/1", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, key, claimsFor(tt.role, time.Now().Add(time.Hour))))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("статус = %d, ожидался %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

// TestRequireRole_NoClaims проверяет 401 без предварительной аутентификации.
func TestRequireRole_NoClaims(t *testing.T) {
	h := RequireRole(rbac.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d, ожидался 401", rec.Code)
	}
}

// auth.go — JWT middleware для аутентификации и авторизации REST API.
// Проверяет Bearer-токен (RS256) по ключам из JWKS, кладёт claims в контекст.
// Роль берётся из claim "role" и сравнивается через пакет rbac.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/bigkaa/funkoworld/internal/api/errors"
	"github.com/bigkaa/funkoworld/internal/domain/rbac"
	"github.com/bigkaa/funkoworld/internal/service"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	// ContextKeyClaims — claims аутентифицированного пользователя.
	ContextKeyClaims contextKey = "jwt_claims"
)

// AuthClaims — claims, извлечённые из проверенного токена.
type AuthClaims struct {
	// Subject — sub из JWT (email пользователя).
	Subject string
	Email   string
	Name    string
	// Role — роль пользователя (Admin или User).
	Role string
}

// HasRole проверяет, достаточно ли роли субъекта для required.
func (c *AuthClaims) HasRole(required string) bool {
	return rbac.Satisfies(c.Role, required)
}

// JWTAuth — middleware для JWT-аутентификации.
type JWTAuth struct {
	jwks      keyfunc.Keyfunc
	issuer    string
	jwtLeeway time.Duration
	logger    *slog.Logger
}

// NewJWTAuth создаёт JWT middleware с предоставленной keyfunc.
// issuer — ожидаемый issuer (пустая строка отключает проверку).
func NewJWTAuth(kf keyfunc.Keyfunc, issuer string, jwtLeeway time.Duration, logger *slog.Logger) *JWTAuth {
	return &JWTAuth{
		jwks:      kf,
		issuer:    issuer,
		jwtLeeway: jwtLeeway,
		logger:    logger.With(slog.String("component", "jwt_auth")),
	}
}

// Middleware возвращает HTTP middleware для JWT-аутентификации.
// Без валидного токена запрос завершается 401.
func (j *JWTAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apierrors.Unauthorized(w, "Falta la cabecera Authorization")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				apierrors.Unauthorized(w, "Formato de Authorization no válido: se espera Bearer <token>")
				return
			}

			tokenString := strings.TrimSpace(parts[1])
			if tokenString == "" {
				apierrors.Unauthorized(w, "Token Bearer vacío")
				return
			}

			rawClaims := &service.TokenClaims{}
			parserOpts := []jwt.ParserOption{
				jwt.WithValidMethods([]string{"RS256"}),
				jwt.WithExpirationRequired(),
				jwt.WithLeeway(j.jwtLeeway),
			}
			if j.issuer != "" {
				parserOpts = append(parserOpts, jwt.WithIssuer(j.issuer))
			}

			token, err := jwt.ParseWithClaims(tokenString, rawClaims, j.jwks.KeyfuncCtx(r.Context()), parserOpts...)
			if err != nil || !token.Valid {
				j.logger.Debug("JWT валидация не пройдена",
					slog.Any("error", err),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Token no válido o caducado")
				return
			}

			subject, err := rawClaims.GetSubject()
			if err != nil || subject == "" {
				apierrors.Unauthorized(w, "Falta sub en el token")
				return
			}

			claims := &AuthClaims{
				Subject: subject,
				Email:   rawClaims.Email,
				Name:    rawClaims.Name,
				Role:    rawClaims.Role,
			}
			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole возвращает middleware, требующий роль не ниже указанной.
// Должен использоваться ПОСЛЕ JWTAuth.Middleware().
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				apierrors.Unauthorized(w, "No autenticado")
				return
			}
			if !claims.HasRole(role) {
				apierrors.Forbidden(w, fmt.Sprintf("Permisos insuficientes: se requiere el rol %s", role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext извлекает AuthClaims из контекста запроса.
// Возвращает nil, если claims отсутствуют.
func ClaimsFromContext(ctx context.Context) *AuthClaims {
	claims, _ := ctx.Value(ContextKeyClaims).(*AuthClaims)
	return claims
}

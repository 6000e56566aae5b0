// auth.go — выпуск токенов доступа и публикация JWKS.
package handlers

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	apierrors "github.com/bigkaa/funkoworld/internal/api/errors"
	"github.com/bigkaa/funkoworld/internal/service"
)

// tokenRequest — тело POST /api/v1/auth/token.
type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse — выпущенный токен.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// IssueToken — POST /api/v1/auth/token.
func (h *APIHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apierrors.Unauthorized(w, err.Error())
			return
		}
		apierrors.FromService(w, h.logger, err)
		return
	}

	tok, err := h.auth.IssueToken(user)
	if err != nil {
		apierrors.FromService(w, h.logger, err)
		return
	}

	h.logger.Info("Выпущен токен", slog.String("email", user.Email), slog.String("role", user.Role))
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(math.Round(time.Until(tok.ExpiresAt).Seconds())),
	})
}

// GetJWKS — GET /api/v1/.well-known/jwks.json.
func (h *APIHandler) GetJWKS(w http.ResponseWriter, r *http.Request) {
	raw, err := h.auth.JWKS(r.Context())
	if err != nil {
		apierrors.FromService(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

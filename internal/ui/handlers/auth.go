// auth.go — вход и выход пользователей веб-интерфейса по локальным учётным записям.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bigkaa/funkoworld/internal/service"
	"github.com/bigkaa/funkoworld/internal/ui/auth"
	uimiddleware "github.com/bigkaa/funkoworld/internal/ui/middleware"
	"github.com/bigkaa/funkoworld/internal/ui/pages"
)

// AuthHandler — обработчики входа и выхода.
type AuthHandler struct {
	renderer
	users Authenticator
}

// NewAuthHandler создаёт AuthHandler.
func NewAuthHandler(users Authenticator, sessions *auth.SessionManager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		renderer: renderer{sessions: sessions, logger: logger.With(slog.String("component", "ui_auth"))},
		users:    users,
	}
}

// HandleLoginForm — GET /login.
func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	session := uimiddleware.SessionFromContext(r.Context())
	returnURL := safeReturnURL(r.URL.Query().Get("returnUrl"))
	if session.IsAuthenticated() {
		http.Redirect(w, r, returnURL, http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, pages.Login(pages.LoginData{
		Nav:       pages.NavFromSession(session),
		ReturnURL: returnURL,
	}))
}

// HandleLogin — POST /login. При успехе сессия получает пользователя
// и новый CSRF-токен, затем redirect на returnUrl.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	session := uimiddleware.SessionFromContext(r.Context())
	email := strings.TrimSpace(r.FormValue("email"))
	returnURL := safeReturnURL(r.FormValue("returnUrl"))

	user, err := h.users.Authenticate(r.Context(), email, r.FormValue("password"))
	if err != nil {
		status := http.StatusInternalServerError
		msg := "Error interno del servidor"
		if errors.Is(err, service.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
			msg = err.Error()
			h.logger.Info("Неудачная попытка входа", slog.String("email", email))
		} else {
			h.logger.Error("Ошибка аутентификации", slog.String("error", err.Error()))
		}
		h.render(w, r, status, pages.Login(pages.LoginData{
			Nav:       pages.NavFromSession(session),
			Email:     email,
			ReturnURL: returnURL,
			Error:     msg,
		}))
		return
	}

	if session == nil {
		if session, err = h.sessions.NewSession(); err != nil {
			h.renderError(w, r, http.StatusInternalServerError, "Error interno del servidor")
			return
		}
	}
	if err := h.sessions.SignIn(session, user.Email, user.Name, user.Role); err != nil {
		h.logger.Error("Ошибка создания сессии", slog.String("error", err.Error()))
		h.renderError(w, r, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	session.SetFlash(auth.FlashSuccess, "Bienvenido, "+user.Name+".")
	h.save(w, session)

	h.logger.Info("Пользователь вошёл",
		slog.String("email", user.Email),
		slog.String("role", user.Role),
	)
	http.Redirect(w, r, returnURL, http.StatusSeeOther)
}

// HandleLogout — POST /logout. Сессия удаляется целиком.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if session := uimiddleware.SessionFromContext(r.Context()); session.IsAuthenticated() {
		h.logger.Info("Пользователь вышел", slog.String("email", session.Email))
	}
	h.sessions.Clear(w)
	http.Redirect(w, r, "/funkos", http.StatusSeeOther)
}

// safeReturnURL допускает только локальные пути, иначе возвращает каталог.
func safeReturnURL(u string) string {
	if u == "" || !strings.HasPrefix(u, "/") || strings.HasPrefix(u, "//") || strings.HasPrefix(u, `/\`) {
		return "/funkos"
	}
	return u
}

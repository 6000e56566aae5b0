// Пакет middleware — HTTP middleware веб-интерфейса.
// auth.go — загрузка cookie-сессии, проверка CSRF и ролей.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/bigkaa/funkoworld/internal/ui/auth"
)

// contextKey — тип ключей контекста UI.
type contextKey string

// ContextKeyUISession — данные UI-сессии в контексте запроса.
const ContextKeyUISession contextKey = "ui_session"

// CSRFFieldName — имя поля формы с CSRF-токеном.
const CSRFFieldName = "csrf_token"

// LoginPath — страница входа.
const LoginPath = "/login"

const (
	// maxFormMemory — объём multipart-формы в памяти.
	maxFormMemory = 8 << 20
	// formOverhead — запас сверх размера файла на остальные поля формы.
	formOverhead = 1 << 20
)

// UISession — middleware сессий веб-интерфейса.
type UISession struct {
	sessions  *auth.SessionManager
	forbidden http.Handler
	maxBody   int64
	logger    *slog.Logger
}

// NewUISession создаёт middleware. forbidden отдаёт страницу 403,
// maxUpload — максимальный размер загружаемого файла в байтах.
func NewUISession(sessions *auth.SessionManager, forbidden http.Handler, maxUpload int64, logger *slog.Logger) *UISession {
	return &UISession{
		sessions:  sessions,
		forbidden: forbidden,
		maxBody:   maxUpload + formOverhead,
		logger:    logger.With(slog.String("component", "ui_session")),
	}
}

// Middleware помещает сессию в контекст. Отсутствующая, истёкшая или
// повреждённая сессия заменяется новой анонимной. POST-запросы без
// верного CSRF-токена отклоняются с 403.
func (us *UISession) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := us.sessions.Load(r)
			if err != nil {
				us.logger.Debug("Ошибка чтения UI-сессии",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
			}

			if session == nil {
				session, err = us.sessions.NewSession()
				if err != nil {
					us.logger.Error("Ошибка создания сессии", slog.String("error", err.Error()))
					http.Error(w, "Error interno del servidor", http.StatusInternalServerError)
					return
				}
				if err := us.sessions.Save(w, session); err != nil {
					us.logger.Error("Ошибка записи session cookie", slog.String("error", err.Error()))
				}
			}

			if r.Method == http.MethodPost && !us.parseForm(w, r) {
				return
			}
			if r.Method == http.MethodPost && !session.ValidCSRF(r.FormValue(CSRFFieldName)) {
				us.logger.Warn("Неверный CSRF-токен",
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
				)
				us.forbidden.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUISession, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseForm разбирает тело POST-запроса с ограничением размера.
// Слишком большое тело отклоняется с 413.
func (us *UISession) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, us.maxBody)
	err := r.ParseMultipartForm(maxFormMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		us.logger.Warn("Слишком большое тело запроса",
			slog.String("path", r.URL.Path),
			slog.Int64("limit", tooLarge.Limit),
		)
		http.Error(w, "Archivo demasiado grande", http.StatusRequestEntityTooLarge)
		return false
	}
	http.Error(w, "Formulario no válido", http.StatusBadRequest)
	return false
}

// RequireAdmin пропускает только роль Admin: анонимный пользователь
// отправляется на вход, остальные получают 403.
func (us *UISession) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := SessionFromContext(r.Context())
		if !session.IsAuthenticated() {
			redirectToLogin(w, r)
			return
		}
		if !session.IsAdmin() {
			us.logger.Warn("Недостаточно прав",
				slog.String("email", session.Email),
				slog.String("role", session.Role),
				slog.String("path", r.URL.Path),
			)
			us.forbidden.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// redirectToLogin отправляет на вход с возвратом на исходную страницу.
// Для POST возвращаемся на каталог: повторить форму после входа нельзя.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	returnURL := r.URL.RequestURI()
	if r.Method != http.MethodGet {
		returnURL = "/funkos"
	}
	http.Redirect(w, r, LoginPath+"?returnUrl="+url.QueryEscape(returnURL), http.StatusFound)
}

// SessionFromContext извлекает SessionData из контекста запроса.
// Возвращает nil, если запрос не прошёл через UISession.
func SessionFromContext(ctx context.Context) *auth.SessionData {
	session, ok := ctx.Value(ContextKeyUISession).(*auth.SessionData)
	if !ok {
		return nil
	}
	return session
}

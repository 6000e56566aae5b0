// Пакет handlers — HTTP-обработчики веб-интерфейса каталога.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/bigkaa/funkoworld/internal/domain/model"
	"github.com/bigkaa/funkoworld/internal/dto"
	"github.com/bigkaa/funkoworld/internal/service"
	"github.com/bigkaa/funkoworld/internal/storage"
	"github.com/bigkaa/funkoworld/internal/ui/auth"
	uimiddleware "github.com/bigkaa/funkoworld/internal/ui/middleware"
	"github.com/bigkaa/funkoworld/internal/ui/pages"
)

// FunkoCatalog — операции каталога, нужные страницам.
type FunkoCatalog interface {
	GetAll(ctx context.Context, filter dto.Filter) (dto.Page[dto.FunkoResponse], error)
	GetByID(ctx context.Context, id int64) (*dto.FunkoResponse, error)
	CreateWithImage(ctx context.Context, req dto.FunkoRequest, u *storage.Upload) (*dto.FunkoResponse, error)
	UpdateWithImage(ctx context.Context, id int64, req dto.FunkoRequest, u *storage.Upload) (*dto.FunkoResponse, error)
	Delete(ctx context.Context, id int64) (*dto.FunkoResponse, error)
}

// CategoryLister — список категорий для выпадающего списка формы.
type CategoryLister interface {
	GetAll(ctx context.Context) ([]dto.CategoryResponse, error)
}

// Authenticator — проверка учётных данных при входе.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
}

var (
	_ FunkoCatalog   = (*service.FunkoService)(nil)
	_ CategoryLister = (*service.CategoryService)(nil)
	_ Authenticator  = (*service.AuthService)(nil)
)

// renderer — общая часть обработчиков: сессия и отрисовка страниц.
type renderer struct {
	sessions *auth.SessionManager
	logger   *slog.Logger
}

// render отрисовывает компонент с указанным статусом.
func (rd *renderer) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		rd.logger.Error("Ошибка рендеринга страницы",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}

// renderError отрисовывает страницу ошибки.
func (rd *renderer) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	nav := pages.NavFromSession(uimiddleware.SessionFromContext(r.Context()))
	rd.render(w, r, status, pages.ErrorPage(nav, status, message))
}

// save записывает изменённую сессию в cookie. Вызывается до записи тела ответа.
func (rd *renderer) save(w http.ResponseWriter, session *auth.SessionData) {
	if session == nil {
		return
	}
	if err := rd.sessions.Save(w, session); err != nil {
		rd.logger.Error("Ошибка записи session cookie", slog.String("error", err.Error()))
	}
}

// Forbidden — страница 403; используется middleware ролей и CSRF.
func (rd *renderer) Forbidden(w http.ResponseWriter, r *http.Request) {
	rd.renderError(w, r, http.StatusForbidden, "No tiene permisos para realizar esta acción.")
}

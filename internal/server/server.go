// Пакет server — HTTP-сервер FunkoWorld с graceful shutdown.
// Собирает REST API, веб-интерфейс, статику, загрузки и служебные endpoints
// в один chi router.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/funkoworld/internal/api/handlers"
	"github.com/bigkaa/funkoworld/internal/api/middleware"
	"github.com/bigkaa/funkoworld/internal/config"
	"github.com/bigkaa/funkoworld/internal/domain/rbac"
	uihandlers "github.com/bigkaa/funkoworld/internal/ui/handlers"
	uimiddleware "github.com/bigkaa/funkoworld/internal/ui/middleware"
	"github.com/bigkaa/funkoworld/internal/ui/static"
)

// APIComponents — компоненты REST API.
type APIComponents struct {
	Handler   *handlers.APIHandler
	Health    *handlers.HealthHandler
	JWTAuth   *middleware.JWTAuth
	Validator *middleware.OpenAPIValidator
}

// UIComponents — компоненты веб-интерфейса. nil отключает интерфейс.
type UIComponents struct {
	CatalogHandler *uihandlers.CatalogHandler
	AuthHandler    *uihandlers.AuthHandler
	Session        *uimiddleware.UISession
}

// Uploads — раздача загруженных файлов.
type Uploads interface {
	Handler() http.Handler
	UploadPath() string
}

// Server — HTTP-сервер FunkoWorld.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
func New(cfg *config.Config, logger *slog.Logger, api APIComponents, ui *UIComponents, uploads Uploads) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(logger, api, ui, uploads),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger.With(slog.String("component", "server")),
		cfg:        cfg,
	}
}

// NewRouter собирает маршруты:
//   - /health/live, /health/ready, /metrics — служебные, без аутентификации;
//   - /api/v1 — REST API: чтение публичное, изменение и выгрузка требуют роль Admin;
//   - /funkos, /login, /logout — веб-интерфейс (если ui != nil);
//   - /static/ и /{uploadPath}/ — файлы.
func NewRouter(logger *slog.Logger, api APIComponents, ui *UIComponents, uploads Uploads) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.Observe(logger))

	router.Get("/health/live", api.Health.HealthLive)
	router.Get("/health/ready", api.Health.HealthReady)
	router.Get("/metrics", api.Health.GetMetrics)

	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))
	if uploads != nil {
		router.Handle("/"+uploads.UploadPath()+"/*", uploads.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		mountAPI(r, api)
	})

	if ui != nil {
		mountUI(router, ui)
	}
	return router
}

// mountAPI регистрирует маршруты REST API. Проверка по контракту выполняется
// после аутентификации, чтобы запрос без токена получал 401.
func mountAPI(r chi.Router, api APIComponents) {
	h := api.Handler

	r.Group(func(r chi.Router) {
		r.Use(api.Validator.Middleware)
		r.Post("/auth/token", h.IssueToken)
		r.Get("/.well-known/jwks.json", h.GetJWKS)
		r.Get("/funkos", h.ListFunkos)
		r.Get("/funkos/{id}", h.GetFunko)
		r.Get("/categories", h.ListCategories)
		r.Get("/categories/{id}", h.GetCategory)
	})

	r.Group(func(r chi.Router) {
		r.Use(api.JWTAuth.Middleware())
		r.Use(middleware.RequireRole(rbac.RoleAdmin))
		r.Use(api.Validator.Middleware)

		r.Post("/funkos", h.CreateFunko)
		r.Put("/funkos/{id}", h.UpdateFunko)
		r.Patch("/funkos/{id}", h.PatchFunko)
		r.Delete("/funkos/{id}", h.DeleteFunko)
		r.Post("/funkos/{id}/image", h.UploadFunkoImage)

		r.Post("/categories", h.CreateCategory)
		r.Put("/categories/{id}", h.UpdateCategory)
		r.Delete("/categories/{id}", h.DeleteCategory)

		r.Get("/catalog/snapshot", h.GetCatalogSnapshot)
	})
}

// mountUI регистрирует страницы веб-интерфейса.
func mountUI(router chi.Router, ui *UIComponents) {
	catalog := ui.CatalogHandler

	router.Group(func(r chi.Router) {
		r.Use(ui.Session.Middleware())

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/funkos", http.StatusFound)
		})
		r.Get("/funkos", catalog.HandleIndex)
		r.Get("/funkos/{id}", catalog.HandleDetails)

		r.Get(uimiddleware.LoginPath, ui.AuthHandler.HandleLoginForm)
		r.Post(uimiddleware.LoginPath, ui.AuthHandler.HandleLogin)
		r.Post("/logout", ui.AuthHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(ui.Session.RequireAdmin)
			r.Get("/funkos/create", catalog.HandleCreateForm)
			r.Post("/funkos/create", catalog.HandleCreate)
			r.Get("/funkos/{id}/update", catalog.HandleUpdateForm)
			r.Post("/funkos/{id}/update", catalog.HandleUpdate)
			r.Post("/funkos/{id}/delete", catalog.HandleDelete)
		})
	})
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}

// Точка входа FunkoWorld — каталог коллекционных фигурок Funko.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL
// и кэшу, создаёт хранилище изображений и сервисный слой, затем запускает
// HTTP-сервер (REST API + веб-интерфейс) с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/bigkaa/funkoworld/internal/api/handlers"
	"github.com/bigkaa/funkoworld/internal/api/middleware"
	"github.com/bigkaa/funkoworld/internal/api/openapi"
	"github.com/bigkaa/funkoworld/internal/cache"
	"github.com/bigkaa/funkoworld/internal/config"
	"github.com/bigkaa/funkoworld/internal/database"
	"github.com/bigkaa/funkoworld/internal/repository"
	"github.com/bigkaa/funkoworld/internal/server"
	"github.com/bigkaa/funkoworld/internal/service"
	"github.com/bigkaa/funkoworld/internal/storage"
	"github.com/bigkaa/funkoworld/internal/ui/auth"
	uihandlers "github.com/bigkaa/funkoworld/internal/ui/handlers"
	uimiddleware "github.com/bigkaa/funkoworld/internal/ui/middleware"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("FunkoWorld запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("cache_backend", cfg.CacheBackend),
	)

	// 3. Подключение к PostgreSQL (pgxpool), ожидание готовности БД
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4. Применение миграций БД (схема и начальный каталог)
	if err := database.Migrate(pool, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Репозитории
	categoryRepo := repository.NewCategoryRepository(pool)
	funkoRepo := repository.NewFunkoRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	// 6. Кэш чтения: in-memory LRU или Redis
	readiness := []handlers.ReadinessChecker{database.NewReadinessChecker(pool)}
	var store cache.Store
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		redisStore := cache.NewRedisStore(client, "funkoworld:")
		store = redisStore
		readiness = append(readiness, redisStore)
		logger.Info("Кэш: Redis", slog.String("addr", cfg.RedisAddr))
	default:
		store = cache.NewMemoryStore(cfg.CacheMaxEntries, cfg.CacheTTL)
		logger.Info("Кэш: in-memory LRU", slog.Int("max_entries", cfg.CacheMaxEntries))
	}

	// 7. Хранилище изображений
	files, err := storage.New(storage.Config{
		Root:                cfg.StorageRoot,
		UploadPath:          cfg.StorageUploadPath,
		MaxFileSize:         cfg.StorageMaxFileSize,
		AllowedExtensions:   cfg.StorageAllowedExtensions,
		AllowedContentTypes: cfg.StorageAllowedContentTypes,
	}, logger)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 8. Сервисный слой
	categorySvc := service.NewCategoryService(categoryRepo, store, cfg.CacheTTL, logger)
	funkoSvc := service.NewFunkoService(funkoRepo, categoryRepo, files, store, cfg.CacheTTL, logger)
	authSvc, err := service.NewAuthService(ctx, userRepo, cfg.JWTIssuer, cfg.JWTTTL, logger)
	if err != nil {
		logger.Error("Ошибка создания сервиса аутентификации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 8.1 Учётные записи по умолчанию
	if cfg.SeedUsers {
		if err := authSvc.EnsureSeedUsers(ctx, service.DefaultSeedUsers); err != nil {
			logger.Error("Ошибка создания учётных записей", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// 9. JWT middleware поверх собственного JWKS
	kf, err := authSvc.Keyfunc()
	if err != nil {
		logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
		os.Exit(1)
	}
	jwtAuth := middleware.NewJWTAuth(kf, authSvc.Issuer(), cfg.JWTLeeway, logger)

	// 10. Контракт OpenAPI для проверки запросов
	doc, err := openapi.Load(ctx)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI-контракта", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 11. topologymetrics — мониторинг PostgreSQL
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"funkoworld",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
	} else {
		readiness = append(readiness, dephealthSvc)
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 12. Веб-интерфейс
	sessions, err := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, cfg.SecureCookie)
	if err != nil {
		logger.Error("Ошибка создания Session Manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	catalogHandler := uihandlers.NewCatalogHandler(funkoSvc, categorySvc, sessions, logger)
	ui := &server.UIComponents{
		CatalogHandler: catalogHandler,
		AuthHandler:    uihandlers.NewAuthHandler(authSvc, sessions, logger),
		Session:        uimiddleware.NewUISession(sessions, http.HandlerFunc(catalogHandler.Forbidden), cfg.StorageMaxFileSize, logger),
	}

	// 13. Создание и запуск HTTP-сервера
	api := server.APIComponents{
		Handler:   handlers.NewAPIHandler(funkoSvc, categorySvc, authSvc, cfg.StorageMaxFileSize, logger),
		Health:    handlers.NewHealthHandler(readiness...),
		JWTAuth:   jwtAuth,
		Validator: middleware.NewOpenAPIValidator(doc, logger),
	}
	srv := server.New(cfg, logger, api, ui, files)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 14. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	logger.Info("FunkoWorld остановлен")
}

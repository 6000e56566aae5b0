// Пакет database — пул PostgreSQL (pgxpool), схема каталога через
// golang-migrate и проверка готовности для /health/ready.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/funkoworld/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// connectWait — сколько ждать PostgreSQL при старте.
const connectWait = 30 * time.Second

// Connect открывает пул и ждёт, пока PostgreSQL начнёт отвечать.
// Неверный DSN не повторяется.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger = logger.With(slog.String("component", "database"))

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("разбор DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = connectWait

	attempt := 0
	err = backoff.RetryNotify(
		func() error {
			attempt++
			return pool.Ping(ctx)
		},
		backoff.WithContext(policy, ctx),
		func(err error, next time.Duration) {
			logger.Warn("PostgreSQL пока недоступен",
				slog.Int("attempt", attempt),
				slog.Duration("retry_in", next),
				slog.String("error", err.Error()),
			)
		},
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("подключение к PostgreSQL %s:%d: %w", cfg.DBHost, cfg.DBPort, err)
	}

	logger.Info("PostgreSQL подключён",
		slog.String("host", cfg.DBHost),
		slog.Int("port", cfg.DBPort),
		slog.String("database", cfg.DBName),
		slog.Int("attempts", attempt),
		slog.Int("max_conns", int(poolCfg.MaxConns)),
	)
	return pool, nil
}

// Migrate доводит схему до последней версии: таблицы каталога и
// начальные категории с Funko. Миграции идут через соединение из pool.
func Migrate(pool *pgxpool.Pool, logger *slog.Logger) error {
	logger = logger.With(slog.String("component", "migrate"))

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("источник миграций: %w", err)
	}

	// Закрытие db не закрывает pool
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("драйвер миграций: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("инициализация миграций: %w", err)
	}
	defer m.Close()
	m.Log = migrateLogger{logger}

	from, _, _ := m.Version()
	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("Схема актуальна", slog.Uint64("version", uint64(from)))
		return nil
	case err != nil:
		return fmt.Errorf("применение миграций: %w", err)
	}

	to, dirty, _ := m.Version()
	logger.Info("Миграции применены",
		slog.Uint64("from", uint64(from)),
		slog.Uint64("to", uint64(to)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

// migrateLogger передаёт сообщения golang-migrate в slog на уровне DEBUG.
type migrateLogger struct {
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.logger.Enabled(context.Background(), slog.LevelDebug)
}

// ReadinessChecker сообщает о готовности PostgreSQL для /health/ready.
type ReadinessChecker struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewReadinessChecker создаёт проверку с таймаутом ping 3 секунды.
func NewReadinessChecker(pool *pgxpool.Pool) *ReadinessChecker {
	return &ReadinessChecker{pool: pool, timeout: 3 * time.Second}
}

// Name — имя зависимости в ответе /health/ready.
func (c *ReadinessChecker) Name() string { return "postgresql" }

// CheckReady пингует PostgreSQL и добавляет к ответу загрузку пула.
func (c *ReadinessChecker) CheckReady(ctx context.Context) (status string, message string) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.pool.Ping(ctx); err != nil {
		return "fail", fmt.Sprintf("PostgreSQL недоступен: %v", err)
	}
	stat := c.pool.Stat()
	return "ok", fmt.Sprintf("соединений занято %d из %d", stat.AcquiredConns(), stat.MaxConns())
}

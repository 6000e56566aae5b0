// Пакет config — загрузка и валидация конфигурации FunkoWorld
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Допустимые бэкенды кэша.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config содержит все параметры конфигурации FunkoWorld.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Кэш ---

	// Бэкенд кэша: memory или redis
	CacheBackend string
	// Время жизни записи кэша
	CacheTTL time.Duration
	// Максимальное число записей in-memory кэша
	CacheMaxEntries int
	// Адрес Redis (host:port), обязателен для CacheBackend=redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// --- Хранилище загруженных файлов ---

	// Корневой каталог на диске
	StorageRoot string
	// Публичный префикс пути (uploads → /uploads/...)
	StorageUploadPath string
	// Максимальный размер файла в байтах
	StorageMaxFileSize int64
	// Допустимые расширения (с точкой, в нижнем регистре)
	StorageAllowedExtensions []string
	// Допустимые Content-Type
	StorageAllowedContentTypes []string

	// --- Аутентификация ---

	// Секрет для шифрования cookie сессии UI
	SessionSecret string
	// Время жизни сессии UI
	SessionTTL time.Duration
	// Флаг Secure для cookie сессии
	SecureCookie bool
	// Issuer выпускаемых JWT
	JWTIssuer string
	// Время жизни выпускаемых JWT
	JWTTTL time.Duration
	// Допуск расхождения часов при проверке exp/nbf
	JWTLeeway time.Duration
	// Создавать ли учётные записи по умолчанию при старте
	SeedUsers bool

	// --- Мониторинг зависимостей ---

	// Группа сервиса для topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// FW_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("FW_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("FW_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("FW_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("FW_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("FW_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("FW_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("FW_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	if cfg.DBHost, err = getEnvRequired("FW_DB_HOST"); err != nil {
		return nil, err
	}
	cfg.DBPort, err = getEnvInt("FW_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("FW_DB_PORT: %w", err)
	}
	if cfg.DBName, err = getEnvRequired("FW_DB_NAME"); err != nil {
		return nil, err
	}
	if cfg.DBUser, err = getEnvRequired("FW_DB_USER"); err != nil {
		return nil, err
	}
	if cfg.DBPassword, err = getEnvRequired("FW_DB_PASSWORD"); err != nil {
		return nil, err
	}
	cfg.DBSSLMode = getEnvDefault("FW_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("FW_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Кэш ---

	cfg.CacheBackend = strings.ToLower(getEnvDefault("FW_CACHE_BACKEND", CacheBackendMemory))
	if cfg.CacheBackend != CacheBackendMemory && cfg.CacheBackend != CacheBackendRedis {
		return nil, fmt.Errorf("FW_CACHE_BACKEND: недопустимое значение %q, допустимые: memory, redis", cfg.CacheBackend)
	}

	// FW_CACHE_TTL — время жизни записи (по умолчанию 5m)
	cfg.CacheTTL, err = getEnvDuration("FW_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("FW_CACHE_TTL: %w", err)
	}
	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("FW_CACHE_TTL: значение должно быть положительным")
	}

	cfg.CacheMaxEntries, err = getEnvInt("FW_CACHE_MAX_ENTRIES", 1000)
	if err != nil {
		return nil, fmt.Errorf("FW_CACHE_MAX_ENTRIES: %w", err)
	}
	if cfg.CacheMaxEntries < 1 {
		return nil, fmt.Errorf("FW_CACHE_MAX_ENTRIES: значение %d должно быть >= 1", cfg.CacheMaxEntries)
	}

	cfg.RedisAddr = getEnvDefault("FW_REDIS_ADDR", "")
	if cfg.CacheBackend == CacheBackendRedis && cfg.RedisAddr == "" {
		return nil, fmt.Errorf("FW_REDIS_ADDR: обязателен при FW_CACHE_BACKEND=redis")
	}
	cfg.RedisPassword = getEnvDefault("FW_REDIS_PASSWORD", "")
	cfg.RedisDB, err = getEnvInt("FW_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("FW_REDIS_DB: %w", err)
	}

	// --- Хранилище ---

	cfg.StorageRoot = getEnvDefault("FW_STORAGE_ROOT", "./data")
	cfg.StorageUploadPath = strings.Trim(getEnvDefault("FW_STORAGE_UPLOAD_PATH", "uploads"), "/")
	if cfg.StorageUploadPath == "" {
		return nil, fmt.Errorf("FW_STORAGE_UPLOAD_PATH: значение не может быть пустым")
	}

	// FW_STORAGE_MAX_FILE_SIZE — максимальный размер файла (по умолчанию 5 MiB)
	cfg.StorageMaxFileSize, err = getEnvInt64("FW_STORAGE_MAX_FILE_SIZE", 5*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("FW_STORAGE_MAX_FILE_SIZE: %w", err)
	}
	if cfg.StorageMaxFileSize < 1 {
		return nil, fmt.Errorf("FW_STORAGE_MAX_FILE_SIZE: значение %d должно быть >= 1", cfg.StorageMaxFileSize)
	}

	cfg.StorageAllowedExtensions = parseCSV(strings.ToLower(
		getEnvDefault("FW_STORAGE_ALLOWED_EXTENSIONS", ".jpg,.jpeg,.png,.gif")))
	for i, ext := range cfg.StorageAllowedExtensions {
		if !strings.HasPrefix(ext, ".") {
			cfg.StorageAllowedExtensions[i] = "." + ext
		}
	}
	cfg.StorageAllowedContentTypes = parseCSV(strings.ToLower(
		getEnvDefault("FW_STORAGE_ALLOWED_CONTENT_TYPES", "image/jpeg,image/png,image/gif")))

	// --- Аутентификация ---

	if cfg.SessionSecret, err = getEnvRequired("FW_SESSION_SECRET"); err != nil {
		return nil, err
	}
	if len(cfg.SessionSecret) < 16 {
		return nil, fmt.Errorf("FW_SESSION_SECRET: длина секрета должна быть не менее 16 символов")
	}

	cfg.SessionTTL, err = getEnvDuration("FW_SESSION_TTL", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("FW_SESSION_TTL: %w", err)
	}

	cfg.SecureCookie, err = getEnvBool("FW_SECURE_COOKIE", false)
	if err != nil {
		return nil, fmt.Errorf("FW_SECURE_COOKIE: %w", err)
	}

	cfg.JWTIssuer = getEnvDefault("FW_JWT_ISSUER", "funkoworld")
	cfg.JWTTTL, err = getEnvDuration("FW_JWT_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("FW_JWT_TTL: %w", err)
	}

	cfg.JWTLeeway, err = getEnvDuration("FW_JWT_LEEWAY", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FW_JWT_LEEWAY: %w", err)
	}

	cfg.SeedUsers, err = getEnvBool("FW_SEED_USERS", true)
	if err != nil {
		return nil, fmt.Errorf("FW_SEED_USERS: %w", err)
	}

	// --- Мониторинг зависимостей ---

	cfg.DephealthGroup = getEnvDefault("FW_DEPHEALTH_GROUP", "funkoworld")
	cfg.DephealthCheckInterval, err = getEnvDuration("FW_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FW_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("FW_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FW_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL (для topologymetrics).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное логическое значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
